package service

import (
	"context"
	"errors"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/metrics"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TrainingService runs the training session lifecycle: start, advance one
// exercise at a time, and finish with the assignment and kid stats cascade.
type TrainingService interface {
	CreateSession(ctx context.Context, userID, kidID, routineID primitive.ObjectID, assignmentID *primitive.ObjectID) (*domain.TrainingSession, error)
	GetSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.TrainingSession, error)
	CompleteExercise(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.TrainingSession, error)
	CompleteSession(ctx context.Context, userID, sessionID primitive.ObjectID, in domain.SessionCompletion) (*domain.TrainingSession, *domain.StatsSummary, error)
}

type trainingService struct {
	sessionRepo     repository.TrainingSessionRepository
	kidRepo         repository.KidRepository
	routineRepo     repository.RoutineRepository
	assignmentRepo  repository.AssignmentRepository
	tx              repository.Transactor
	cascadeAttempts int
	metrics         *metrics.Metrics
	log             *zap.Logger
	now             func() time.Time
}

func NewTrainingService(
	sessionRepo repository.TrainingSessionRepository,
	kidRepo repository.KidRepository,
	routineRepo repository.RoutineRepository,
	assignmentRepo repository.AssignmentRepository,
	tx repository.Transactor,
	cascadeAttempts int,
	m *metrics.Metrics,
	log *zap.Logger,
) TrainingService {
	if cascadeAttempts < 1 {
		cascadeAttempts = 1
	}
	return &trainingService{
		sessionRepo:     sessionRepo,
		kidRepo:         kidRepo,
		routineRepo:     routineRepo,
		assignmentRepo:  assignmentRepo,
		tx:              tx,
		cascadeAttempts: cascadeAttempts,
		metrics:         m,
		log:             log.Named("training"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession starts a session for an owned, active kid on an active routine.
// The routine's exercise count is copied into the session; later routine
// edits do not change it.
func (s *trainingService) CreateSession(ctx context.Context, userID, kidID, routineID primitive.ObjectID, assignmentID *primitive.ObjectID) (*domain.TrainingSession, error) {
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

	if assignmentID != nil {
		if _, err := s.assignmentRepo.Find(ctx, *assignmentID, kidID); err != nil {
			return nil, notFoundAs(err, ErrAssignmentNotFound)
		}
	}

	total, err := s.routineRepo.CountExercises(ctx, routineID)
	if err != nil {
		return nil, notFoundAs(err, ErrRoutineNotFound)
	}
	if total < 1 {
		return nil, invalid("routineId", "routine has no exercises")
	}

	now := s.now()
	session := &domain.TrainingSession{
		KidID:          kidID,
		UserID:         userID,
		AssignmentID:   assignmentID,
		RoutineID:      routineID,
		Status:         domain.SessionInProgress,
		StartedAt:      now,
		TotalExercises: total,
		CreatedAt:      now,
	}
	if _, err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.SessionsStarted.Inc()
	s.log.Info("training session started",
		zap.String("session_id", session.ID.Hex()),
		zap.String("kid_id", kidID.Hex()),
		zap.String("routine_id", routineID.Hex()),
		zap.Int("total_exercises", total))
	return session, nil
}

func (s *trainingService) GetSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.TrainingSession, error) {
	session, err := s.sessionRepo.GetOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}
	return session, nil
}

// CompleteExercise records exactly one finished exercise. A session that is
// not in progress (including one that just auto-completed) is not found.
func (s *trainingService) CompleteExercise(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.TrainingSession, error) {
	session, err := s.sessionRepo.AdvanceExercise(ctx, sessionID, userID, s.now())
	if err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}

	if session.Status == domain.SessionCompleted {
		s.metrics.SessionsCompleted.WithLabelValues(metrics.TriggerAuto).Inc()
		s.log.Info("training session auto-completed",
			zap.String("session_id", sessionID.Hex()),
			zap.Int("exercisesCompleted", session.ExercisesCompleted))
	}
	return session, nil
}

// CompleteSession finishes a session with the caller's summary and, in the
// same transaction, completes the linked assignment and updates kid stats.
// The cascade runs at most once per session. Write conflicts are retried up
// to cascadeAttempts times before ErrCascadeConflict is returned.
func (s *trainingService) CompleteSession(ctx context.Context, userID, sessionID primitive.ObjectID, in domain.SessionCompletion) (*domain.TrainingSession, *domain.StatsSummary, error) {
	if err := validateStruct(in); err != nil {
		return nil, nil, err
	}

	var (
		session *domain.TrainingSession
		summary *domain.StatsSummary
		err     error
	)
	for attempt := 1; attempt <= s.cascadeAttempts; attempt++ {
		session, summary, err = s.completeOnce(ctx, userID, sessionID, in)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
		if attempt < s.cascadeAttempts {
			s.metrics.CascadeRetries.Inc()
			s.log.Warn("session completion conflicted, retrying",
				zap.String("session_id", sessionID.Hex()), zap.Int("attempt", attempt))
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrConflict):
		return nil, nil, ErrCascadeConflict
	default:
		return nil, nil, notFoundAs(err, ErrSessionNotFound)
	}

	s.metrics.SessionsCompleted.WithLabelValues(metrics.TriggerExplicit).Inc()
	s.log.Info("training session completed",
		zap.String("session_id", sessionID.Hex()),
		zap.String("kid_id", session.KidID.Hex()),
		zap.Int("totalTimeMinutes", in.TotalTimeMinutes),
		zap.Int("new_streak", summary.NewStreak))
	return session, summary, nil
}

func (s *trainingService) completeOnce(ctx context.Context, userID, sessionID primitive.ObjectID, in domain.SessionCompletion) (*domain.TrainingSession, *domain.StatsSummary, error) {
	var (
		session *domain.TrainingSession
		summary domain.StatsSummary
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		var err error
		session, err = s.sessionRepo.Finalize(ctx, sessionID, userID, in, now)
		if err != nil {
			return err
		}

		if session.AssignmentID != nil {
			err = s.assignmentRepo.MarkCompleted(ctx, *session.AssignmentID, in.TotalTimeMinutes, in.ExercisesCompleted, now)
			if errors.Is(err, repository.ErrNotFound) {
				s.log.Warn("linked assignment missing, skipping",
					zap.String("session_id", sessionID.Hex()),
					zap.String("assignment_id", session.AssignmentID.Hex()))
			} else if err != nil {
				return err
			}
		}

		stats, err := s.kidRepo.IncrementSessionStats(ctx, session.KidID, in.TotalTimeMinutes, now)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.log.Warn("kid missing, stats not updated",
				zap.String("session_id", sessionID.Hex()), zap.String("kid_id", session.KidID.Hex()))
			summary = domain.StatsSummary{}
		case err != nil:
			return err
		default:
			summary = domain.StatsSummary{NewStreak: stats.CurrentStreak, TotalMinutes: stats.TotalMinutes}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return session, &summary, nil
}

// notFoundAs maps repository.ErrNotFound to target and passes other errors through.
func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
