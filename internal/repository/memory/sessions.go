package memory

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()

	session.ID = primitive.NewObjectID()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt
	r.s.state.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *sessionRepo) owned(sessionID, userID primitive.ObjectID) (domain.TrainingSession, bool) {
	sess, ok := r.s.state.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return domain.TrainingSession{}, false
	}
	return sess, true
}

func (r *sessionRepo) GetOwned(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.TrainingSession, error) {
	defer r.s.lock(ctx)()

	sess, ok := r.owned(sessionID, userID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *sessionRepo) AdvanceExercise(ctx context.Context, sessionID, userID primitive.ObjectID, at time.Time) (*domain.TrainingSession, error) {
	defer r.s.lock(ctx)()

	sess, ok := r.owned(sessionID, userID)
	if !ok || !sess.CanAdvance() {
		return nil, repository.ErrNotFound
	}
	sess.Advance(at)
	r.s.state.sessions[sessionID] = sess
	return &sess, nil
}

func (r *sessionRepo) Finalize(ctx context.Context, sessionID, userID primitive.ObjectID, in domain.SessionCompletion, at time.Time) (*domain.TrainingSession, error) {
	defer r.s.lock(ctx)()

	sess, ok := r.owned(sessionID, userID)
	if !ok || !sess.CanFinalize() {
		return nil, repository.ErrNotFound
	}

	completed := in.ExercisesCompleted
	if completed > sess.TotalExercises {
		completed = sess.TotalExercises
	}
	minutes, rating := in.TotalTimeMinutes, in.OverallRating

	sess.Status = domain.SessionCompleted
	sess.CompletedAt = &at
	sess.ExercisesCompleted = completed
	sess.TotalTimeMinutes = &minutes
	sess.OverallRating = &rating
	sess.Notes = nil
	if in.Notes != nil {
		notes := *in.Notes
		sess.Notes = &notes
	}
	sess.Finalized = true
	sess.UpdatedAt = at
	r.s.state.sessions[sessionID] = sess
	return &sess, nil
}
