// Package memory provides an in-process implementation of every repository
// interface, used by tests and by the memory database driver.
package memory

import (
	"context"
	"sync"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repository.Transactor = (*Store)(nil)

type state struct {
	users       map[primitive.ObjectID]domain.User
	kids        map[primitive.ObjectID]domain.Kid
	exercises   map[primitive.ObjectID]domain.Exercise
	routines    map[primitive.ObjectID]domain.Routine
	assignments map[primitive.ObjectID]domain.Assignment
	uploads     map[primitive.ObjectID]domain.MediaUpload
	sessions    map[primitive.ObjectID]domain.TrainingSession
}

func newState() state {
	return state{
		users:       make(map[primitive.ObjectID]domain.User),
		kids:        make(map[primitive.ObjectID]domain.Kid),
		exercises:   make(map[primitive.ObjectID]domain.Exercise),
		routines:    make(map[primitive.ObjectID]domain.Routine),
		assignments: make(map[primitive.ObjectID]domain.Assignment),
		uploads:     make(map[primitive.ObjectID]domain.MediaUpload),
		sessions:    make(map[primitive.ObjectID]domain.TrainingSession),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// snapshot copies the maps. Stored values are never mutated in place, only
// replaced, so copying the struct values is enough.
func (s state) snapshot() state {
	return state{
		users:       cloneMap(s.users),
		kids:        cloneMap(s.kids),
		exercises:   cloneMap(s.exercises),
		routines:    cloneMap(s.routines),
		assignments: cloneMap(s.assignments),
		uploads:     cloneMap(s.uploads),
		sessions:    cloneMap(s.sessions),
	}
}

// Store serializes every operation behind one mutex. That also gives
// per-session write serialization for free.
type Store struct {
	mu    sync.Mutex
	state state
}

func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

// lock acquires the store mutex unless ctx already runs inside this
// store's transaction, which holds it.
func (s *Store) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTransaction holds the store lock for the whole of fn and restores
// the pre-call state if fn returns an error.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = before
		return err
	}
	return nil
}

func (s *Store) Users() repository.UserRepository                  { return &userRepo{s} }
func (s *Store) Kids() repository.KidRepository                    { return &kidRepo{s} }
func (s *Store) Exercises() repository.ExerciseRepository          { return &exerciseRepo{s} }
func (s *Store) Routines() repository.RoutineRepository            { return &routineRepo{s} }
func (s *Store) Assignments() repository.AssignmentRepository      { return &assignmentRepo{s} }
func (s *Store) MediaUploads() repository.MediaUploadRepository    { return &uploadRepo{s} }
func (s *Store) TrainingSessions() repository.TrainingSessionRepository {
	return &sessionRepo{s}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
