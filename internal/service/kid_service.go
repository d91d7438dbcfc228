package service

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// KidInput is a full profile for creation. Preferences default when nil.
type KidInput struct {
	Name        string
	Age         int
	Avatar      string
	BirthDate   string
	Preferences *domain.KidPreferences
}

// KidPatch carries only the profile fields the caller wants to change.
type KidPatch struct {
	Name        *string
	Age         *int
	Avatar      *string
	BirthDate   *string
	Preferences *domain.KidPreferences
}

// KidStatsPatch is the caller-editable part of kid stats.
type KidStatsPatch struct {
	ThisWeekAssigned *int    `json:"thisWeekAssigned" validate:"omitempty,min=0"`
	FavoriteCategory *string `json:"favoriteCategory"`
}

// KidStatsReport is the stats view with the last 7 days of progress, oldest first.
type KidStatsReport struct {
	domain.KidStats
	WeeklyProgress []domain.WeeklyProgressDay `json:"weeklyProgress"`
}

type KidService interface {
	CreateKid(ctx context.Context, userID primitive.ObjectID, in KidInput) (*domain.Kid, error)
	ListKids(ctx context.Context, userID primitive.ObjectID) ([]domain.Kid, error)
	GetKid(ctx context.Context, userID, kidID primitive.ObjectID) (*domain.Kid, error)
	UpdateKid(ctx context.Context, userID, kidID primitive.ObjectID, patch KidPatch) (*domain.Kid, error)
	DeleteKid(ctx context.Context, userID, kidID primitive.ObjectID) error
	GetKidStats(ctx context.Context, userID, kidID primitive.ObjectID) (*KidStatsReport, error)
	UpdateKidStats(ctx context.Context, userID, kidID primitive.ObjectID, patch KidStatsPatch) (*domain.KidStats, error)
}

type kidService struct {
	kidRepo        repository.KidRepository
	assignmentRepo repository.AssignmentRepository
	tx             repository.Transactor
	log            *zap.Logger
	now            func() time.Time
}

func NewKidService(kidRepo repository.KidRepository, assignmentRepo repository.AssignmentRepository, tx repository.Transactor, log *zap.Logger) KidService {
	return &kidService{
		kidRepo:        kidRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		log:            log.Named("kids"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *kidService) CreateKid(ctx context.Context, userID primitive.ObjectID, in KidInput) (*domain.Kid, error) {
	kid := &domain.Kid{
		UserID:      userID,
		Name:        in.Name,
		Age:         in.Age,
		Avatar:      in.Avatar,
		BirthDate:   in.BirthDate,
		Preferences: domain.DefaultKidPreferences(),
		IsActive:    true,
	}
	if kid.Avatar == "" {
		kid.Avatar = domain.DefaultAvatar
	}
	if in.Preferences != nil {
		kid.Preferences = *in.Preferences
	}
	if kid.Preferences.FavoriteExercises == nil {
		kid.Preferences.FavoriteExercises = []string{}
	}

	if err := validateStruct(kid); err != nil {
		return nil, err
	}

	if _, err := s.kidRepo.Create(ctx, kid); err != nil {
		return nil, err
	}
	s.log.Info("kid created", zap.String("kid_id", kid.ID.Hex()), zap.String("user_id", userID.Hex()))
	return kid, nil
}

func (s *kidService) ListKids(ctx context.Context, userID primitive.ObjectID) ([]domain.Kid, error) {
	return s.kidRepo.ListByUser(ctx, userID)
}

func (s *kidService) GetKid(ctx context.Context, userID, kidID primitive.ObjectID) (*domain.Kid, error) {
	kid, err := s.kidRepo.GetOwned(ctx, kidID, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrKidNotFound)
	}
	return kid, nil
}

func (s *kidService) UpdateKid(ctx context.Context, userID, kidID primitive.ObjectID, patch KidPatch) (*domain.Kid, error) {
	kid, err := s.GetKid(ctx, userID, kidID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		kid.Name = *patch.Name
	}
	if patch.Age != nil {
		kid.Age = *patch.Age
	}
	if patch.Avatar != nil {
		kid.Avatar = *patch.Avatar
	}
	if patch.BirthDate != nil {
		kid.BirthDate = *patch.BirthDate
	}
	if patch.Preferences != nil {
		kid.Preferences = *patch.Preferences
		if kid.Preferences.FavoriteExercises == nil {
			kid.Preferences.FavoriteExercises = []string{}
		}
	}

	if err := validateStruct(kid); err != nil {
		return nil, err
	}

	if err := s.kidRepo.Update(ctx, kid); err != nil {
		return nil, notFoundAs(err, ErrKidNotFound)
	}
	return kid, nil
}

func (s *kidService) DeleteKid(ctx context.Context, userID, kidID primitive.ObjectID) error {
	if err := s.kidRepo.Deactivate(ctx, kidID, userID); err != nil {
		return notFoundAs(err, ErrKidNotFound)
	}
	s.log.Info("kid deactivated", zap.String("kid_id", kidID.Hex()))
	return nil
}

func (s *kidService) GetKidStats(ctx context.Context, userID, kidID primitive.ObjectID) (*KidStatsReport, error) {
	kid, err := s.GetKid(ctx, userID, kidID)
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -6)
	completed, err := s.assignmentRepo.ListCompletedSince(ctx, kidID, since)
	if err != nil {
		return nil, err
	}

	return &KidStatsReport{
		KidStats:       kid.Stats,
		WeeklyProgress: weeklyProgress(since, completed),
	}, nil
}

// weeklyProgress buckets completed assignments into the 7 days starting at since.
func weeklyProgress(since time.Time, completed []domain.Assignment) []domain.WeeklyProgressDay {
	days := make([]domain.WeeklyProgressDay, 7)
	index := make(map[string]int, 7)
	for i := range days {
		d := since.AddDate(0, 0, i)
		key := d.Format(dateLayout)
		days[i] = domain.WeeklyProgressDay{Date: key, Day: d.Weekday().String()[:3]}
		index[key] = i
	}

	for _, a := range completed {
		if a.CompletedAt == nil {
			continue
		}
		i, ok := index[a.CompletedAt.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		days[i].Completed++
		if a.CompletionTimeMinutes != nil {
			days[i].Minutes += *a.CompletionTimeMinutes
		}
	}
	return days
}

// UpdateKidStats overwrites the caller-editable stats fields. It reads and
// saves the whole stats document inside a transaction so a concurrent
// session completion is not lost.
func (s *kidService) UpdateKidStats(ctx context.Context, userID, kidID primitive.ObjectID, patch KidStatsPatch) (*domain.KidStats, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	if _, err := s.GetKid(ctx, userID, kidID); err != nil {
		return nil, err
	}

	var saved domain.KidStats
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stats, err := s.kidRepo.GetStats(ctx, kidID)
		if err != nil {
			return err
		}
		if patch.ThisWeekAssigned != nil {
			stats.ThisWeekAssigned = *patch.ThisWeekAssigned
		}
		if patch.FavoriteCategory != nil {
			stats.FavoriteCategory = patch.FavoriteCategory
		}
		if err := s.kidRepo.SaveStats(ctx, kidID, *stats); err != nil {
			return err
		}
		saved = *stats
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrKidNotFound)
	}
	return &saved, nil
}
