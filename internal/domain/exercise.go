package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExerciseCategory string

const (
	CategoryCardio       ExerciseCategory = "Cardio"
	CategoryStrength     ExerciseCategory = "Fuerza"
	CategoryFlexibility  ExerciseCategory = "Flexibilidad"
	CategoryBalance      ExerciseCategory = "Equilibrio"
	CategoryCoordination ExerciseCategory = "Coordinación"
)

type AgeGroup string

const (
	AgeGroupToddler AgeGroup = "3-5"
	AgeGroupChild   AgeGroup = "6-8"
	AgeGroupPreteen AgeGroup = "9-12"
)

// CreatedBySystem marks catalog entries seeded by the platform rather than a tutor.
const CreatedBySystem = "system"

// Exercise represents a single exercise definition in the catalog.
type Exercise struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name" validate:"min=1,max=200"`
	Description     string             `bson:"description" json:"description" validate:"max=1000"`
	Category        ExerciseCategory   `bson:"category" json:"category" validate:"oneof=Cardio Fuerza Flexibilidad Equilibrio Coordinación"`
	Difficulty      Difficulty         `bson:"difficulty" json:"difficulty" validate:"oneof=Principiante Intermedio Avanzado"`
	DurationSeconds int                `bson:"durationSeconds" json:"durationSeconds" validate:"min=10,max=600"`
	AgeGroup        AgeGroup           `bson:"ageGroup" json:"ageGroup" validate:"oneof=3-5 6-8 9-12"`
	Instructions    []string           `bson:"instructions" json:"instructions"`
	Benefits        []string           `bson:"benefits" json:"benefits"`
	EquipmentNeeded []string           `bson:"equipmentNeeded" json:"equipmentNeeded"`
	VideoURL        string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	ImageURL        string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// Object keys of media uploaded through the app; internal use.
	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"-"`
	ImageObjectKey string `bson:"imageObjectKey,omitempty" json:"-"`

	CreatedBy string    `bson:"createdBy" json:"createdBy"` // "system" or the owner's user id hex
	IsCustom  bool      `bson:"isCustom" json:"isCustom"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (e *Exercise) OwnedBy(userID primitive.ObjectID) bool {
	return e.CreatedBy == userID.Hex()
}
