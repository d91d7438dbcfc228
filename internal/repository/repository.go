package repository

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrConflict     = RepositoryError("write conflict")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn so that every repository call made with the ctx it
// receives is applied all-or-nothing. A write conflict with a concurrent
// transaction surfaces as ErrConflict; the whole fn may then be retried.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// KidRepository is the kid profile store. Inactive kids behave as missing.
type KidRepository interface {
	Create(ctx context.Context, kid *domain.Kid) (primitive.ObjectID, error)
	// GetOwned returns the kid only if it is active and owned by userID.
	GetOwned(ctx context.Context, kidID, userID primitive.ObjectID) (*domain.Kid, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Kid, error)
	// Update writes the profile fields (name, age, avatar, birth date, preferences).
	Update(ctx context.Context, kid *domain.Kid) error
	Deactivate(ctx context.Context, kidID, userID primitive.ObjectID) error

	GetStats(ctx context.Context, kidID primitive.ObjectID) (*domain.KidStats, error)
	SaveStats(ctx context.Context, kidID primitive.ObjectID, stats domain.KidStats) error
	// IncrementSessionStats applies one session completion as field-level
	// increments and returns the stats after the update. Deactivated kids
	// are updated too; only a missing kid is ErrNotFound.
	IncrementSessionStats(ctx context.Context, kidID primitive.ObjectID, minutes int, at time.Time) (*domain.KidStats, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Deactivate(ctx context.Context, id primitive.ObjectID, createdBy string) error
	SetMedia(ctx context.Context, id primitive.ObjectID, kind domain.MediaKind, objectKey string) error
	// CountActive returns how many of ids name active exercises.
	CountActive(ctx context.Context, ids []primitive.ObjectID) (int, error)
}

// RoutineRepository defines the interface for interacting with routine data.
type RoutineRepository interface {
	Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error)
	ExistsActive(ctx context.Context, id primitive.ObjectID) (bool, error)
	// CountExercises returns the current length of the routine's exercise list.
	CountExercises(ctx context.Context, id primitive.ObjectID) (int, error)
	Update(ctx context.Context, routine *domain.Routine) error
	Deactivate(ctx context.Context, id primitive.ObjectID, createdBy string) error
	IncrementAssignments(ctx context.Context, id primitive.ObjectID) error
}

// AssignmentRepository defines the interface for interacting with assignment data.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	// Find returns the assignment only if it belongs to kidID.
	Find(ctx context.Context, assignmentID, kidID primitive.ObjectID) (*domain.Assignment, error)
	// MarkCompleted is the session cascade write; notes are left untouched.
	MarkCompleted(ctx context.Context, id primitive.ObjectID, minutes, exercises int, at time.Time) error
	// Complete is the manual completion path and also records notes.
	Complete(ctx context.Context, id primitive.ObjectID, minutes, exercises int, notes string, at time.Time) error
	ListCompletedSince(ctx context.Context, kidID primitive.ObjectID, since time.Time) ([]domain.Assignment, error)
}

// MediaUploadRepository stores metadata of confirmed exercise media uploads.
type MediaUploadRepository interface {
	Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error)
}

// TrainingSessionRepository persists training sessions. Every method is scoped
// by the owning user; a session owned by someone else is ErrNotFound.
type TrainingSessionRepository interface {
	Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error)
	GetOwned(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.TrainingSession, error)
	// AdvanceExercise atomically records one finished exercise on an
	// in-progress session, completing it on the last one. Returns
	// ErrNotFound when the session is not in progress or already full.
	AdvanceExercise(ctx context.Context, sessionID, userID primitive.ObjectID, at time.Time) (*domain.TrainingSession, error)
	// Finalize marks the session completed with the caller's summary and sets
	// the finalized marker. ExercisesCompleted is clamped to TotalExercises.
	// Returns ErrNotFound for finalized or abandoned sessions.
	Finalize(ctx context.Context, sessionID, userID primitive.ObjectID, in domain.SessionCompletion, at time.Time) (*domain.TrainingSession, error)
}
