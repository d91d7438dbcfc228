package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// openTestDB connects to TEST_MONGO_URI (a replica set, for transactions)
// and returns a throwaway database dropped at the end of the test.
func openTestDB(t *testing.T) (*mongo.Client, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	client, err := ConnectDB(context.Background(), uri)
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	db := client.Database(fmt.Sprintf("jumpingkids_test_%d", time.Now().UnixNano()))
	if failed := EnsureIndexes(context.Background(), db); len(failed) > 0 {
		t.Fatalf("EnsureIndexes: %v", failed)
	}

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = DisconnectDB(client)
	})
	return client, db
}

func TestTrainingSessionRepositoryIntegration(t *testing.T) {
	_, db := openTestDB(t)
	ctx := context.Background()
	repo := NewMongoTrainingSessionRepository(db)
	owner := primitive.NewObjectID()

	sess := domain.TrainingSession{
		KidID:          primitive.NewObjectID(),
		UserID:         owner,
		RoutineID:      primitive.NewObjectID(),
		Status:         domain.SessionInProgress,
		StartedAt:      time.Now().UTC(),
		TotalExercises: 3,
	}
	if _, err := repo.Create(ctx, &sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AdvanceExercise(ctx, sess.ID, owner, time.Now().UTC())
		}()
	}
	wg.Wait()

	got, err := repo.GetOwned(ctx, sess.ID, owner)
	if err != nil {
		t.Fatalf("GetOwned: %v", err)
	}
	if got.ExercisesCompleted != 3 || got.CurrentExerciseIndex != 3 || got.Status != domain.SessionCompleted || got.CompletedAt == nil {
		t.Fatalf("unexpected session after advances: %+v", got)
	}

	if _, err := repo.GetOwned(ctx, sess.ID, primitive.NewObjectID()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign GetOwned error = %v, want ErrNotFound", err)
	}

	in := domain.SessionCompletion{TotalTimeMinutes: 10, ExercisesCompleted: 7, OverallRating: 5}
	fin, err := repo.Finalize(ctx, sess.ID, owner, in, time.Now().UTC())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if fin.ExercisesCompleted != 3 || !fin.Finalized || fin.Notes != nil {
		t.Fatalf("unexpected finalized session: %+v", fin)
	}
	if _, err := repo.Finalize(ctx, sess.ID, owner, in, time.Now().UTC()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second Finalize error = %v, want ErrNotFound", err)
	}
}

func TestKidStatsIncrementIntegration(t *testing.T) {
	_, db := openTestDB(t)
	ctx := context.Background()
	repo := NewMongoKidRepository(db)

	kid := domain.Kid{UserID: primitive.NewObjectID(), Name: "Leo", Age: 8, IsActive: true,
		Preferences: domain.DefaultKidPreferences(), Stats: domain.KidStats{CurrentStreak: 2, LongestStreak: 5}}
	if _, err := repo.Create(ctx, &kid); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stats, err := repo.IncrementSessionStats(ctx, kid.ID, 12, time.Now().UTC())
	if err != nil {
		t.Fatalf("IncrementSessionStats: %v", err)
	}
	if stats.CurrentStreak != 3 || stats.LongestStreak != 5 || stats.TotalMinutes != 12 || stats.TotalRoutines != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	for i := 0; i < 3; i++ {
		stats, err = repo.IncrementSessionStats(ctx, kid.ID, 1, time.Now().UTC())
		if err != nil {
			t.Fatalf("IncrementSessionStats: %v", err)
		}
	}
	if stats.CurrentStreak != 6 || stats.LongestStreak != 6 {
		t.Fatalf("longest streak should follow current: %+v", stats)
	}
}

func TestTransactorRollbackIntegration(t *testing.T) {
	client, db := openTestDB(t)
	ctx := context.Background()
	kids := NewMongoKidRepository(db)
	tx := NewTransactor(client)

	kid := domain.Kid{UserID: primitive.NewObjectID(), Name: "Mia", Age: 6, IsActive: true, Preferences: domain.DefaultKidPreferences()}
	if _, err := kids.Create(ctx, &kid); err != nil {
		t.Fatalf("Create: %v", err)
	}

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := kids.IncrementSessionStats(ctx, kid.ID, 30, time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction error = %v, want boom", err)
	}

	stats, err := kids.GetStats(ctx, kid.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalMinutes != 0 {
		t.Fatalf("transaction was not rolled back: %+v", stats)
	}
}
