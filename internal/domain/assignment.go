package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for assignment lifecycle
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentSkipped    AssignmentStatus = "skipped"
)

// Assignment schedules a Routine for a Kid on a given day.
type Assignment struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoutineID             primitive.ObjectID `bson:"routineId" json:"routineId"`
	KidID                 primitive.ObjectID `bson:"kidId" json:"kidId"`
	UserID                primitive.ObjectID `bson:"userId" json:"userId"` // kid owner, denormalized for scoped queries
	AssignedDate          string             `bson:"assignedDate" json:"assignedDate"` // YYYY-MM-DD
	Status                AssignmentStatus   `bson:"status" json:"status"`
	AssignedBy            primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	CompletedAt           *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletionTimeMinutes *int               `bson:"completionTimeMinutes,omitempty" json:"completionTimeMinutes,omitempty"`
	ExercisesCompleted    *int               `bson:"exercisesCompleted,omitempty" json:"exercisesCompleted,omitempty"`
	Notes                 string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}
