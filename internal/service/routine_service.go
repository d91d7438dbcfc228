package service

import (
	"context"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RoutineInput is a full routine definition.
type RoutineInput struct {
	Name            string
	Description     string
	Category        domain.ExerciseCategory
	Difficulty      domain.Difficulty
	DurationMinutes int
	AgeGroup        domain.AgeGroup
	Exercises       []domain.RoutineExercise
}

// RoutinePatch changes only the non-nil fields. A non-nil Exercises
// replaces the whole list.
type RoutinePatch struct {
	Name            *string
	Description     *string
	Category        *domain.ExerciseCategory
	Difficulty      *domain.Difficulty
	DurationMinutes *int
	AgeGroup        *domain.AgeGroup
	Exercises       []domain.RoutineExercise
}

type RoutineService interface {
	CreateRoutine(ctx context.Context, userID primitive.ObjectID, in RoutineInput) (*domain.Routine, error)
	GetRoutine(ctx context.Context, routineID primitive.ObjectID) (*domain.Routine, error)
	UpdateRoutine(ctx context.Context, userID, routineID primitive.ObjectID, patch RoutinePatch) (*domain.Routine, error)
	DeleteRoutine(ctx context.Context, userID, routineID primitive.ObjectID) error
}

type routineService struct {
	routineRepo  repository.RoutineRepository
	exerciseRepo repository.ExerciseRepository
	log          *zap.Logger
}

func NewRoutineService(routineRepo repository.RoutineRepository, exerciseRepo repository.ExerciseRepository, log *zap.Logger) RoutineService {
	return &routineService{
		routineRepo:  routineRepo,
		exerciseRepo: exerciseRepo,
		log:          log.Named("routines"),
	}
}

func (s *routineService) validate(ctx context.Context, r *domain.Routine) error {
	if err := validateStruct(r); err != nil {
		return err
	}

	ids := make([]primitive.ObjectID, 0, len(r.Exercises))
	unique := make(map[primitive.ObjectID]bool, len(r.Exercises))
	for _, re := range r.Exercises {
		ids = append(ids, re.ExerciseID)
		unique[re.ExerciseID] = true
	}

	active, err := s.exerciseRepo.CountActive(ctx, ids)
	if err != nil {
		return err
	}
	if active != len(unique) {
		return invalid("exercises", "every exercise must exist and be active")
	}
	return nil
}

// CreateRoutine stores a custom routine. RestSeconds defaults per entry when
// the caller leaves it nil at the transport layer.
func (s *routineService) CreateRoutine(ctx context.Context, userID primitive.ObjectID, in RoutineInput) (*domain.Routine, error) {
	routine := &domain.Routine{
		Name:            in.Name,
		Description:     in.Description,
		Category:        in.Category,
		Difficulty:      in.Difficulty,
		DurationMinutes: in.DurationMinutes,
		AgeGroup:        in.AgeGroup,
		Exercises:       in.Exercises,
		CreatedBy:       userID.Hex(),
		IsCustom:        true,
		IsActive:        true,
	}
	if routine.Difficulty == "" {
		routine.Difficulty = domain.DifficultyBeginner
	}
	if routine.Exercises == nil {
		routine.Exercises = []domain.RoutineExercise{}
	}
	if err := s.validate(ctx, routine); err != nil {
		return nil, err
	}

	if _, err := s.routineRepo.Create(ctx, routine); err != nil {
		return nil, err
	}
	s.log.Info("routine created", zap.String("routine_id", routine.ID.Hex()), zap.Int("exercises", len(routine.Exercises)))
	return routine, nil
}

func (s *routineService) GetRoutine(ctx context.Context, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		return nil, notFoundAs(err, ErrRoutineNotFound)
	}
	if !routine.IsActive {
		return nil, ErrRoutineNotFound
	}
	return routine, nil
}

func (s *routineService) getOwned(ctx context.Context, userID, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.GetRoutine(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if !routine.OwnedBy(userID) {
		return nil, ErrAccessDenied
	}
	return routine, nil
}

// UpdateRoutine edits an owned routine. Replacing the exercise list does not
// touch sessions already running on it.
func (s *routineService) UpdateRoutine(ctx context.Context, userID, routineID primitive.ObjectID, patch RoutinePatch) (*domain.Routine, error) {
	routine, err := s.getOwned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		routine.Name = *patch.Name
	}
	if patch.Description != nil {
		routine.Description = *patch.Description
	}
	if patch.Category != nil {
		routine.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		routine.Difficulty = *patch.Difficulty
	}
	if patch.DurationMinutes != nil {
		routine.DurationMinutes = *patch.DurationMinutes
	}
	if patch.AgeGroup != nil {
		routine.AgeGroup = *patch.AgeGroup
	}
	if patch.Exercises != nil {
		routine.Exercises = patch.Exercises
	}
	if err := s.validate(ctx, routine); err != nil {
		return nil, err
	}

	if err := s.routineRepo.Update(ctx, routine); err != nil {
		return nil, notFoundAs(err, ErrRoutineNotFound)
	}
	return routine, nil
}

func (s *routineService) DeleteRoutine(ctx context.Context, userID, routineID primitive.ObjectID) error {
	if _, err := s.getOwned(ctx, userID, routineID); err != nil {
		return err
	}
	if err := s.routineRepo.Deactivate(ctx, routineID, userID.Hex()); err != nil {
		return notFoundAs(err, ErrRoutineNotFound)
	}
	return nil
}
