package memory

import (
	"context"
	"sort"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type kidRepo struct{ s *Store }

func cloneKid(k domain.Kid) domain.Kid {
	k.Preferences.FavoriteExercises = cloneStrings(k.Preferences.FavoriteExercises)
	return k
}

func (r *kidRepo) Create(ctx context.Context, kid *domain.Kid) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()

	kid.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	kid.CreatedAt = now
	kid.UpdatedAt = now
	r.s.state.kids[kid.ID] = cloneKid(*kid)
	return kid.ID, nil
}

func (r *kidRepo) GetOwned(ctx context.Context, kidID, userID primitive.ObjectID) (*domain.Kid, error) {
	defer r.s.lock(ctx)()

	k, ok := r.s.state.kids[kidID]
	if !ok || !k.IsActive || k.UserID != userID {
		return nil, repository.ErrNotFound
	}
	k = cloneKid(k)
	return &k, nil
}

func (r *kidRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Kid, error) {
	defer r.s.lock(ctx)()

	kids := []domain.Kid{}
	for _, k := range r.s.state.kids {
		if k.UserID == userID && k.IsActive {
			kids = append(kids, cloneKid(k))
		}
	}
	sort.Slice(kids, func(i, j int) bool { return kids[i].CreatedAt.Before(kids[j].CreatedAt) })
	return kids, nil
}

func (r *kidRepo) Update(ctx context.Context, kid *domain.Kid) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.state.kids[kid.ID]
	if !ok || !cur.IsActive || cur.UserID != kid.UserID {
		return repository.ErrNotFound
	}
	cur.Name = kid.Name
	cur.Age = kid.Age
	cur.Avatar = kid.Avatar
	cur.BirthDate = kid.BirthDate
	cur.Preferences = kid.Preferences
	cur.UpdatedAt = time.Now().UTC()
	r.s.state.kids[kid.ID] = cloneKid(cur)
	kid.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *kidRepo) Deactivate(ctx context.Context, kidID, userID primitive.ObjectID) error {
	defer r.s.lock(ctx)()

	k, ok := r.s.state.kids[kidID]
	if !ok || !k.IsActive || k.UserID != userID {
		return repository.ErrNotFound
	}
	k.IsActive = false
	k.UpdatedAt = time.Now().UTC()
	r.s.state.kids[kidID] = k
	return nil
}

func (r *kidRepo) GetStats(ctx context.Context, kidID primitive.ObjectID) (*domain.KidStats, error) {
	defer r.s.lock(ctx)()

	k, ok := r.s.state.kids[kidID]
	if !ok || !k.IsActive {
		return nil, repository.ErrNotFound
	}
	stats := k.Stats
	return &stats, nil
}

func (r *kidRepo) SaveStats(ctx context.Context, kidID primitive.ObjectID, stats domain.KidStats) error {
	defer r.s.lock(ctx)()

	k, ok := r.s.state.kids[kidID]
	if !ok || !k.IsActive {
		return repository.ErrNotFound
	}
	k.Stats = stats
	k.UpdatedAt = time.Now().UTC()
	r.s.state.kids[kidID] = k
	return nil
}

func (r *kidRepo) IncrementSessionStats(ctx context.Context, kidID primitive.ObjectID, minutes int, at time.Time) (*domain.KidStats, error) {
	defer r.s.lock(ctx)()

	k, ok := r.s.state.kids[kidID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	k.Stats.ApplySessionCompletion(minutes, at)
	k.UpdatedAt = at
	r.s.state.kids[kidID] = k
	stats := k.Stats
	return &stats, nil
}
