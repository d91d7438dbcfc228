package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultRestSeconds = 10

// RoutineExercise is one ordered step of a routine.
type RoutineExercise struct {
	ExerciseID      primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order           int                `bson:"order" json:"order" validate:"min=1"`
	DurationSeconds *int               `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty" validate:"omitempty,min=10"`
	Repetitions     *int               `bson:"repetitions,omitempty" json:"repetitions,omitempty" validate:"omitempty,min=1"`
	RestSeconds     int                `bson:"restSeconds" json:"restSeconds" validate:"min=0,max=300"`
}

// Routine is an ordered list of exercises. Exercises are embedded so the
// exercise count is a property of one document.
type Routine struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name" validate:"min=1,max=200"`
	Description      string             `bson:"description" json:"description" validate:"max=1000"`
	Category         ExerciseCategory   `bson:"category" json:"category" validate:"oneof=Cardio Fuerza Flexibilidad Equilibrio Coordinación"`
	Difficulty       Difficulty         `bson:"difficulty" json:"difficulty" validate:"oneof=Principiante Intermedio Avanzado"`
	DurationMinutes  int                `bson:"durationMinutes" json:"durationMinutes" validate:"min=5,max=120"`
	AgeGroup         AgeGroup           `bson:"ageGroup" json:"ageGroup" validate:"oneof=3-5 6-8 9-12"`
	Exercises        []RoutineExercise  `bson:"exercises" json:"exercises" validate:"dive"`
	CreatedBy        string             `bson:"createdBy" json:"createdBy"`
	IsCustom         bool               `bson:"isCustom" json:"isCustom"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	PopularityScore  float64            `bson:"popularityScore" json:"popularityScore"`
	TotalAssignments int                `bson:"totalAssignments" json:"totalAssignments"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (r *Routine) OwnedBy(userID primitive.ObjectID) bool {
	return r.CreatedBy == userID.Hex()
}
