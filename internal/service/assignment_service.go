package service

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AssignmentService interface {
	CreateAssignment(ctx context.Context, userID, kidID, routineID primitive.ObjectID, assignedDate string) (*domain.Assignment, error)
	GetAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error)
	CompleteAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID, minutes, exercises int, notes string) (*domain.Assignment, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	kidRepo        repository.KidRepository
	routineRepo    repository.RoutineRepository
	tx             repository.Transactor
	log            *zap.Logger
	now            func() time.Time
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	kidRepo repository.KidRepository,
	routineRepo repository.RoutineRepository,
	tx repository.Transactor,
	log *zap.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		kidRepo:        kidRepo,
		routineRepo:    routineRepo,
		tx:             tx,
		log:            log.Named("assignments"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateAssignment schedules an active routine for an owned kid and bumps
// the routine's assignment counter in the same transaction.
func (s *assignmentService) CreateAssignment(ctx context.Context, userID, kidID, routineID primitive.ObjectID, assignedDate string) (*domain.Assignment, error) {
	if assignedDate == "" {
		assignedDate = s.now().Format(dateLayout)
	}
	if !validDate(assignedDate) {
		return nil, invalid("assignedDate", "must be YYYY-MM-DD")
	}

	if _, err := s.kidRepo.GetOwned(ctx, kidID, userID); err != nil {
		return nil, notFoundAs(err, ErrKidNotFound)
	}
	active, err := s.routineRepo.ExistsActive(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrRoutineNotFound
	}

	assignment := &domain.Assignment{
		RoutineID:    routineID,
		KidID:        kidID,
		UserID:       userID,
		AssignedDate: assignedDate,
		Status:       domain.AssignmentPending,
		AssignedBy:   userID,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			return err
		}
		return s.routineRepo.IncrementAssignments(ctx, routineID)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrRoutineNotFound)
	}

	s.log.Info("assignment created",
		zap.String("assignment_id", assignment.ID.Hex()),
		zap.String("kid_id", kidID.Hex()),
		zap.String("date", assignedDate))
	return assignment, nil
}

// GetAssignment returns the assignment only if its kid is active and owned by userID.
func (s *assignmentService) GetAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, notFoundAs(err, ErrAssignmentNotFound)
	}
	if _, err := s.kidRepo.GetOwned(ctx, assignment.KidID, userID); err != nil {
		return nil, notFoundAs(err, ErrAssignmentNotFound)
	}
	return assignment, nil
}

type assignmentCompletion struct {
	CompletionTimeMinutes int    `json:"completionTimeMinutes" validate:"min=1"`
	ExercisesCompleted    int    `json:"exercisesCompleted" validate:"min=0"`
	Notes                 string `json:"notes" validate:"max=500"`
}

// CompleteAssignment is the manual completion path, outside any training session.
func (s *assignmentService) CompleteAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID, minutes, exercises int, notes string) (*domain.Assignment, error) {
	if err := validateStruct(assignmentCompletion{
		CompletionTimeMinutes: minutes,
		ExercisesCompleted:    exercises,
		Notes:                 notes,
	}); err != nil {
		return nil, err
	}

	if _, err := s.GetAssignment(ctx, userID, assignmentID); err != nil {
		return nil, err
	}
	if err := s.assignmentRepo.Complete(ctx, assignmentID, minutes, exercises, notes, s.now()); err != nil {
		return nil, notFoundAs(err, ErrAssignmentNotFound)
	}
	return s.assignmentRepo.GetByID(ctx, assignmentID)
}
