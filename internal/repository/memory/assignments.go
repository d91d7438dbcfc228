package memory

import (
	"context"
	"sort"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentRepo struct{ s *Store }

func (r *assignmentRepo) Create(ctx context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()

	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.state.assignments[a.ID] = *a
	return a.ID, nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.state.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *assignmentRepo) Find(ctx context.Context, assignmentID, kidID primitive.ObjectID) (*domain.Assignment, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.state.assignments[assignmentID]
	if !ok || a.KidID != kidID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *assignmentRepo) complete(id primitive.ObjectID, minutes, exercises int, notes *string, at time.Time) error {
	a, ok := r.s.state.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = domain.AssignmentCompleted
	a.CompletedAt = &at
	a.CompletionTimeMinutes = &minutes
	a.ExercisesCompleted = &exercises
	if notes != nil {
		a.Notes = *notes
	}
	a.UpdatedAt = at
	r.s.state.assignments[id] = a
	return nil
}

func (r *assignmentRepo) MarkCompleted(ctx context.Context, id primitive.ObjectID, minutes, exercises int, at time.Time) error {
	defer r.s.lock(ctx)()
	return r.complete(id, minutes, exercises, nil, at)
}

func (r *assignmentRepo) Complete(ctx context.Context, id primitive.ObjectID, minutes, exercises int, notes string, at time.Time) error {
	defer r.s.lock(ctx)()
	return r.complete(id, minutes, exercises, &notes, at)
}

func (r *assignmentRepo) ListCompletedSince(ctx context.Context, kidID primitive.ObjectID, since time.Time) ([]domain.Assignment, error) {
	defer r.s.lock(ctx)()

	out := []domain.Assignment{}
	for _, a := range r.s.state.assignments {
		if a.KidID != kidID || a.Status != domain.AssignmentCompleted || a.CompletedAt == nil {
			continue
		}
		if !a.CompletedAt.Before(since) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(*out[j].CompletedAt) })
	return out, nil
}
