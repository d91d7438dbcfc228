package service

import (
	"context"
	"errors"
	"testing"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func seedExercise(t *testing.T, store *memory.Store, active bool) primitive.ObjectID {
	t.Helper()
	e := domain.Exercise{
		Name:            "Estrella",
		Category:        domain.CategoryCoordination,
		Difficulty:      domain.DifficultyBeginner,
		DurationSeconds: 20,
		AgeGroup:        domain.AgeGroupToddler,
		CreatedBy:       domain.CreatedBySystem,
		IsActive:        true,
	}
	id, err := store.Exercises().Create(context.Background(), &e)
	if err != nil {
		t.Fatalf("seed exercise: %v", err)
	}
	if !active {
		if err := store.Exercises().Deactivate(context.Background(), id, domain.CreatedBySystem); err != nil {
			t.Fatalf("deactivate exercise: %v", err)
		}
	}
	return id
}

func routineInput(ids ...primitive.ObjectID) RoutineInput {
	in := RoutineInput{
		Name:            "Circuito de la selva",
		Category:        domain.CategoryCardio,
		DurationMinutes: 15,
		AgeGroup:        domain.AgeGroupChild,
	}
	for i, id := range ids {
		in.Exercises = append(in.Exercises, domain.RoutineExercise{ExerciseID: id, Order: i + 1, RestSeconds: domain.DefaultRestSeconds})
	}
	return in
}

func TestCreateRoutine(t *testing.T) {
	store := memory.New()
	svc := NewRoutineService(store.Routines(), store.Exercises(), zap.NewNop())
	ctx := context.Background()
	owner := primitive.NewObjectID()

	a, b := seedExercise(t, store, true), seedExercise(t, store, true)
	gone := seedExercise(t, store, false)

	// The same exercise may appear twice in a routine.
	routine, err := svc.CreateRoutine(ctx, owner, routineInput(a, b, a))
	if err != nil {
		t.Fatalf("CreateRoutine: %v", err)
	}
	if len(routine.Exercises) != 3 || routine.CreatedBy != owner.Hex() || !routine.IsCustom {
		t.Fatalf("unexpected routine: %+v", routine)
	}

	tests := []struct {
		name  string
		in    RoutineInput
		field string
	}{
		{name: "inactive exercise", in: routineInput(a, gone), field: "exercises"},
		{name: "unknown exercise", in: routineInput(primitive.NewObjectID()), field: "exercises"},
		{name: "too short", in: func() RoutineInput { in := routineInput(a); in.DurationMinutes = 2; return in }(), field: "durationMinutes"},
		{name: "bad order", in: func() RoutineInput { in := routineInput(a); in.Exercises[0].Order = 0; return in }(), field: "exercises.order"},
		{name: "long rest", in: func() RoutineInput { in := routineInput(a); in.Exercises[0].RestSeconds = 301; return in }(), field: "exercises.restSeconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRoutine(ctx, owner, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("CreateRoutine error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestRoutineOwnership(t *testing.T) {
	store := memory.New()
	svc := NewRoutineService(store.Routines(), store.Exercises(), zap.NewNop())
	ctx := context.Background()
	owner := primitive.NewObjectID()
	a := seedExercise(t, store, true)

	routine, err := svc.CreateRoutine(ctx, owner, routineInput(a))
	if err != nil {
		t.Fatalf("CreateRoutine: %v", err)
	}

	minutes := 20
	if _, err := svc.UpdateRoutine(ctx, primitive.NewObjectID(), routine.ID, RoutinePatch{DurationMinutes: &minutes}); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("UpdateRoutine by stranger error = %v, want ErrAccessDenied", err)
	}

	updated, err := svc.UpdateRoutine(ctx, owner, routine.ID, RoutinePatch{DurationMinutes: &minutes, Exercises: routineInput(a, a).Exercises})
	if err != nil {
		t.Fatalf("UpdateRoutine: %v", err)
	}
	if updated.DurationMinutes != 20 || len(updated.Exercises) != 2 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := svc.DeleteRoutine(ctx, owner, routine.ID); err != nil {
		t.Fatalf("DeleteRoutine: %v", err)
	}
	if _, err := svc.GetRoutine(ctx, routine.ID); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("GetRoutine after delete error = %v, want ErrRoutineNotFound", err)
	}
}
