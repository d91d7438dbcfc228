package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Principiante"
	DifficultyIntermediate Difficulty = "Intermedio"
	DifficultyAdvanced     Difficulty = "Avanzado"
)

type PreferredTime string

const (
	PreferredMorning   PreferredTime = "morning"
	PreferredAfternoon PreferredTime = "afternoon"
	PreferredEvening   PreferredTime = "evening"
)

const DefaultAvatar = "boy-smile"

type KidPreferences struct {
	FavoriteExercises []string      `bson:"favoriteExercises" json:"favoriteExercises"`
	PreferredTime     PreferredTime `bson:"preferredTime" json:"preferredTime" validate:"oneof=morning afternoon evening"`
	MaxDailyExercises int           `bson:"maxDailyExercises" json:"maxDailyExercises" validate:"min=1,max=20"`
	Difficulty        Difficulty    `bson:"difficulty" json:"difficulty" validate:"oneof=Principiante Intermedio Avanzado"`
}

// DefaultKidPreferences is what a new profile starts with when the caller sends none.
func DefaultKidPreferences() KidPreferences {
	return KidPreferences{
		FavoriteExercises: []string{},
		PreferredTime:     PreferredMorning,
		MaxDailyExercises: 5,
		Difficulty:        DifficultyBeginner,
	}
}

// KidStats is embedded in the kid document. The session-driven counters are
// only ever changed through field-level increments in the store.
type KidStats struct {
	TotalRoutines     int        `bson:"totalRoutines" json:"totalRoutines"`
	ThisWeekCompleted int        `bson:"thisWeekCompleted" json:"thisWeekCompleted"`
	ThisWeekAssigned  int        `bson:"thisWeekAssigned" json:"thisWeekAssigned"`
	CurrentStreak     int        `bson:"currentStreak" json:"currentStreak"`
	LongestStreak     int        `bson:"longestStreak" json:"longestStreak"`
	FavoriteCategory  *string    `bson:"favoriteCategory,omitempty" json:"favoriteCategory"`
	TotalMinutes      int        `bson:"totalMinutes" json:"totalMinutes"`
	LastActivity      *time.Time `bson:"lastActivity,omitempty" json:"lastActivity"`
}

// ApplySessionCompletion is the in-process form of the completion cascade on stats.
func (s *KidStats) ApplySessionCompletion(minutes int, at time.Time) {
	s.TotalRoutines++
	s.ThisWeekCompleted++
	// Streak grows on every completion without checking for consecutive days.
	// Kept as-is pending a product decision on calendar-based streaks.
	s.CurrentStreak++
	s.TotalMinutes += minutes
	s.LastActivity = &at
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
}

// Kid is a child profile owned by a user account.
type Kid struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"` // owner
	Name        string             `bson:"name" json:"name" validate:"min=1,max=100"`
	Age         int                `bson:"age" json:"age" validate:"min=3,max=18"`
	Avatar      string             `bson:"avatar" json:"avatar"`
	BirthDate   string             `bson:"birthDate" json:"birthDate" validate:"datetime=2006-01-02"`
	Preferences KidPreferences     `bson:"preferences" json:"preferences"`
	Stats       KidStats           `bson:"stats" json:"stats"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WeeklyProgressDay is one entry of the 7-day progress strip shown with kid stats.
type WeeklyProgressDay struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Day       string `json:"day"`  // Mon, Tue, ...
	Completed int    `json:"completed"`
	Minutes   int    `json:"minutes"`
}
