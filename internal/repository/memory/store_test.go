package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedKid(tb testing.TB, s *Store, owner primitive.ObjectID) domain.Kid {
	tb.Helper()
	kid := domain.Kid{UserID: owner, Name: "Ana", Age: 7, Preferences: domain.DefaultKidPreferences(), IsActive: true}
	if _, err := s.Kids().Create(context.Background(), &kid); err != nil {
		tb.Fatalf("seed kid: %v", err)
	}
	return kid
}

func seedSession(tb testing.TB, s *Store, owner, kidID primitive.ObjectID, total int) domain.TrainingSession {
	tb.Helper()
	sess := domain.TrainingSession{
		KidID:          kidID,
		UserID:         owner,
		RoutineID:      primitive.NewObjectID(),
		Status:         domain.SessionInProgress,
		StartedAt:      time.Now().UTC(),
		TotalExercises: total,
	}
	if _, err := s.TrainingSessions().Create(context.Background(), &sess); err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return sess
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	kid := seedKid(t, s, owner)

	boom := errors.New("boom")
	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Kids().IncrementSessionStats(ctx, kid.ID, 10, time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction error = %v, want boom", err)
	}

	stats, err := s.Kids().GetStats(ctx, kid.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRoutines != 0 || stats.TotalMinutes != 0 {
		t.Fatalf("stats not rolled back: %+v", stats)
	}
}

func TestWithinTransactionCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	kid := seedKid(t, s, primitive.NewObjectID())

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		// nested calls reuse the held lock
		return s.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := s.Kids().IncrementSessionStats(ctx, kid.ID, 15, time.Now())
			return err
		})
	})
	if err != nil {
		t.Fatalf("WithinTransaction: %v", err)
	}

	stats, _ := s.Kids().GetStats(ctx, kid.ID)
	if stats.TotalMinutes != 15 || stats.CurrentStreak != 1 || stats.LongestStreak != 1 {
		t.Fatalf("unexpected stats after commit: %+v", stats)
	}
}

func TestAdvanceExerciseStopsAtTotal(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	kid := seedKid(t, s, owner)
	sess := seedSession(t, s, owner, kid.ID, 2)
	repo := s.TrainingSessions()

	for i := 0; i < 2; i++ {
		if _, err := repo.AdvanceExercise(ctx, sess.ID, owner, time.Now()); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}
	if _, err := repo.AdvanceExercise(ctx, sess.ID, owner, time.Now()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("third advance error = %v, want ErrNotFound", err)
	}

	got, _ := repo.GetOwned(ctx, sess.ID, owner)
	if got.Status != domain.SessionCompleted || got.ExercisesCompleted != 2 || got.CompletedAt == nil {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestAdvanceExerciseConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	kid := seedKid(t, s, owner)
	sess := seedSession(t, s, owner, kid.ID, 5)
	repo := s.TrainingSessions()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AdvanceExercise(ctx, sess.ID, owner, time.Now()); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if oks != 5 {
		t.Fatalf("successful advances = %d, want 5", oks)
	}
	got, _ := repo.GetOwned(ctx, sess.ID, owner)
	if got.ExercisesCompleted != 5 || got.CurrentExerciseIndex != 5 {
		t.Fatalf("unexpected counters: completed=%d index=%d", got.ExercisesCompleted, got.CurrentExerciseIndex)
	}
}

func TestFinalizeOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	kid := seedKid(t, s, owner)
	sess := seedSession(t, s, owner, kid.ID, 3)
	repo := s.TrainingSessions()

	in := domain.SessionCompletion{TotalTimeMinutes: 12, ExercisesCompleted: 9, OverallRating: 4}
	got, err := repo.Finalize(ctx, sess.ID, owner, in, time.Now())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got.ExercisesCompleted != 3 {
		t.Fatalf("exercisesCompleted = %d, want clamp to 3", got.ExercisesCompleted)
	}
	if !got.Finalized || got.Status != domain.SessionCompleted {
		t.Fatalf("session not finalized: %+v", got)
	}

	if _, err := repo.Finalize(ctx, sess.ID, owner, in, time.Now()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second Finalize error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Finalize(ctx, sess.ID, primitive.NewObjectID(), in, time.Now()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign Finalize error = %v, want ErrNotFound", err)
	}
}

func TestUserEmailUnique(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := domain.User{Email: "tutor@example.com", PasswordHash: "x", Role: domain.RoleTutor}
	if _, err := s.Users().Create(ctx, &u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := domain.User{Email: "Tutor@Example.com", PasswordHash: "y", Role: domain.RoleTutor}
	if _, err := s.Users().Create(ctx, &dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate Create error = %v, want ErrDuplicate", err)
	}
}
