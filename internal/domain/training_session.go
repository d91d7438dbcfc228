package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned" // set only by administrative tooling
)

// TrainingSession is one live attempt at running through a routine.
//
// ExercisesCompleted never exceeds TotalExercises, CurrentExerciseIndex only
// grows, and a session never leaves COMPLETED or ABANDONED. Finalized records
// that the completion cascade (assignment + kid stats) already ran; it runs
// at most once per session.
type TrainingSession struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	KidID                primitive.ObjectID  `bson:"kidId" json:"kidId"`
	UserID               primitive.ObjectID  `bson:"userId" json:"-"` // kid owner, denormalized for ownership filters
	AssignmentID         *primitive.ObjectID `bson:"assignmentId,omitempty" json:"assignmentId,omitempty"`
	RoutineID            primitive.ObjectID  `bson:"routineId" json:"routineId"`
	Status               SessionStatus       `bson:"status" json:"status"`
	StartedAt            time.Time           `bson:"startedAt" json:"startedAt"`
	CompletedAt          *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CurrentExerciseIndex int                 `bson:"currentExerciseIndex" json:"currentExerciseIndex"`
	ExercisesCompleted   int                 `bson:"exercisesCompleted" json:"exercisesCompleted"`
	TotalExercises       int                 `bson:"totalExercises" json:"totalExercises"`
	TotalTimeMinutes     *int                `bson:"totalTimeMinutes,omitempty" json:"totalTimeMinutes,omitempty"`
	OverallRating        *int                `bson:"overallRating,omitempty" json:"overallRating,omitempty"`
	Notes                *string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Finalized            bool                `bson:"finalized" json:"finalized"`
	CreatedAt            time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CanAdvance reports whether another exercise may be recorded.
func (s *TrainingSession) CanAdvance() bool {
	return s.Status == SessionInProgress && s.ExercisesCompleted < s.TotalExercises
}

// CanFinalize reports whether the completion cascade may still run.
func (s *TrainingSession) CanFinalize() bool {
	return !s.Finalized && s.Status != SessionAbandoned
}

// Advance records one finished exercise and auto-completes on the last one.
// Callers must check CanAdvance first.
func (s *TrainingSession) Advance(at time.Time) {
	s.ExercisesCompleted++
	s.CurrentExerciseIndex++
	s.UpdatedAt = at
	if s.ExercisesCompleted >= s.TotalExercises {
		s.Status = SessionCompleted
		s.CompletedAt = &at
	}
}

// SessionCompletion carries the caller's summary for an explicit finish.
type SessionCompletion struct {
	TotalTimeMinutes   int     `json:"totalTimeMinutes" validate:"min=1"`
	ExercisesCompleted int     `json:"exercisesCompleted" validate:"min=0"`
	OverallRating      int     `json:"overallRating" validate:"min=1,max=5"`
	Notes              *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// StatsSummary is returned alongside a completed session.
type StatsSummary struct {
	NewStreak    int  `json:"newStreak"`
	TotalMinutes int  `json:"totalMinutes"`
	LevelUp      bool `json:"levelUp"` // reserved, no leveling rules yet
}
