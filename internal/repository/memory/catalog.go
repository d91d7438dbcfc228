package memory

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type exerciseRepo struct{ s *Store }

func cloneExercise(e domain.Exercise) domain.Exercise {
	e.Instructions = cloneStrings(e.Instructions)
	e.Benefits = cloneStrings(e.Benefits)
	e.EquipmentNeeded = cloneStrings(e.EquipmentNeeded)
	return e
}

func (r *exerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.s.state.exercises[exercise.ID] = cloneExercise(*exercise)
	return exercise.ID, nil
}

func (r *exerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e = cloneExercise(e)
	return &e, nil
}

func (r *exerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.state.exercises[exercise.ID]
	if !ok || !cur.IsActive || cur.CreatedBy != exercise.CreatedBy {
		return repository.ErrNotFound
	}
	exercise.UpdatedAt = time.Now().UTC()
	exercise.CreatedAt = cur.CreatedAt
	exercise.IsActive = cur.IsActive
	exercise.VideoObjectKey = cur.VideoObjectKey
	exercise.ImageObjectKey = cur.ImageObjectKey
	r.s.state.exercises[exercise.ID] = cloneExercise(*exercise)
	return nil
}

func (r *exerciseRepo) Deactivate(ctx context.Context, id primitive.ObjectID, createdBy string) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.exercises[id]
	if !ok || !e.IsActive || e.CreatedBy != createdBy {
		return repository.ErrNotFound
	}
	e.IsActive = false
	e.UpdatedAt = time.Now().UTC()
	r.s.state.exercises[id] = e
	return nil
}

func (r *exerciseRepo) SetMedia(ctx context.Context, id primitive.ObjectID, kind domain.MediaKind, objectKey string) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.exercises[id]
	if !ok || !e.IsActive {
		return repository.ErrNotFound
	}
	switch kind {
	case domain.MediaVideo:
		e.VideoObjectKey = objectKey
	case domain.MediaImage:
		e.ImageObjectKey = objectKey
	default:
		return repository.ErrUpdateFailed
	}
	e.UpdatedAt = time.Now().UTC()
	r.s.state.exercises[id] = e
	return nil
}

func (r *exerciseRepo) CountActive(ctx context.Context, ids []primitive.ObjectID) (int, error) {
	defer r.s.lock(ctx)()

	seen := make(map[primitive.ObjectID]bool, len(ids))
	n := 0
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := r.s.state.exercises[id]; ok && e.IsActive {
			n++
		}
	}
	return n, nil
}

type routineRepo struct{ s *Store }

func cloneRoutine(rt domain.Routine) domain.Routine {
	if rt.Exercises != nil {
		exercises := make([]domain.RoutineExercise, len(rt.Exercises))
		for i, re := range rt.Exercises {
			re.DurationSeconds = cloneIntPtr(re.DurationSeconds)
			re.Repetitions = cloneIntPtr(re.Repetitions)
			exercises[i] = re
		}
		rt.Exercises = exercises
	}
	return rt
}

func (r *routineRepo) Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()

	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt = now
	routine.UpdatedAt = now
	r.s.state.routines[routine.ID] = cloneRoutine(*routine)
	return routine.ID, nil
}

func (r *routineRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	defer r.s.lock(ctx)()

	rt, ok := r.s.state.routines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rt = cloneRoutine(rt)
	return &rt, nil
}

func (r *routineRepo) ExistsActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	defer r.s.lock(ctx)()

	rt, ok := r.s.state.routines[id]
	return ok && rt.IsActive, nil
}

func (r *routineRepo) CountExercises(ctx context.Context, id primitive.ObjectID) (int, error) {
	defer r.s.lock(ctx)()

	rt, ok := r.s.state.routines[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return len(rt.Exercises), nil
}

func (r *routineRepo) Update(ctx context.Context, routine *domain.Routine) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.state.routines[routine.ID]
	if !ok || !cur.IsActive || cur.CreatedBy != routine.CreatedBy {
		return repository.ErrNotFound
	}
	routine.UpdatedAt = time.Now().UTC()
	routine.CreatedAt = cur.CreatedAt
	routine.IsActive = cur.IsActive
	routine.TotalAssignments = cur.TotalAssignments
	routine.PopularityScore = cur.PopularityScore
	r.s.state.routines[routine.ID] = cloneRoutine(*routine)
	return nil
}

func (r *routineRepo) Deactivate(ctx context.Context, id primitive.ObjectID, createdBy string) error {
	defer r.s.lock(ctx)()

	rt, ok := r.s.state.routines[id]
	if !ok || !rt.IsActive || rt.CreatedBy != createdBy {
		return repository.ErrNotFound
	}
	rt.IsActive = false
	rt.UpdatedAt = time.Now().UTC()
	r.s.state.routines[id] = rt
	return nil
}

func (r *routineRepo) IncrementAssignments(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()

	rt, ok := r.s.state.routines[id]
	if !ok {
		return repository.ErrNotFound
	}
	rt.TotalAssignments++
	r.s.state.routines[id] = rt
	return nil
}

type uploadRepo struct{ s *Store }

func (r *uploadRepo) Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()

	upload.ID = primitive.NewObjectID()
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}
	r.s.state.uploads[upload.ID] = *upload
	return upload.ID, nil
}

func (r *uploadRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.state.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
