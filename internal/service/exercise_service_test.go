package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository/memory"
	"jumpingkids/backend/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStorage is an in-memory bucket.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]storage.ObjectInfo
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]storage.ObjectInfo)}
}

func (f *fakeStorage) put(key, contentType string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = storage.ObjectInfo{Size: size, ContentType: contentType}
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key + "?X-Amz-Signature=put", nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key + "?X-Amz-Signature=get", nil
}

func (f *fakeStorage) StatObject(_ context.Context, key string) (*storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &info, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func validExerciseInput() ExerciseInput {
	return ExerciseInput{
		Name:            "Saltos de rana",
		Category:        domain.CategoryCardio,
		DurationSeconds: 30,
		AgeGroup:        domain.AgeGroupChild,
		Instructions:    []string{"Agáchate", "Salta"},
	}
}

func TestCreateExercise(t *testing.T) {
	store := memory.New()
	svc := NewExerciseService(store.Exercises(), store.MediaUploads(), newFakeStorage(), zap.NewNop())
	owner := primitive.NewObjectID()

	exercise, err := svc.CreateExercise(context.Background(), owner, validExerciseInput())
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if exercise.CreatedBy != owner.Hex() || !exercise.IsCustom || !exercise.IsActive {
		t.Fatalf("unexpected exercise: %+v", exercise)
	}
	if exercise.Difficulty != domain.DifficultyBeginner || exercise.Benefits == nil || exercise.EquipmentNeeded == nil {
		t.Fatalf("defaults not applied: %+v", exercise)
	}

	tests := []struct {
		name   string
		mutate func(in *ExerciseInput)
		field  string
	}{
		{name: "empty name", mutate: func(in *ExerciseInput) { in.Name = "" }, field: "name"},
		{name: "unknown category", mutate: func(in *ExerciseInput) { in.Category = "Yoga" }, field: "category"},
		{name: "too short", mutate: func(in *ExerciseInput) { in.DurationSeconds = 5 }, field: "durationSeconds"},
		{name: "too long", mutate: func(in *ExerciseInput) { in.DurationSeconds = 601 }, field: "durationSeconds"},
		{name: "unknown age group", mutate: func(in *ExerciseInput) { in.AgeGroup = "13-18" }, field: "ageGroup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validExerciseInput()
			tt.mutate(&in)
			_, err := svc.CreateExercise(context.Background(), owner, in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("CreateExercise error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestExerciseOwnership(t *testing.T) {
	store := memory.New()
	svc := NewExerciseService(store.Exercises(), store.MediaUploads(), newFakeStorage(), zap.NewNop())
	ctx := context.Background()
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()

	exercise, err := svc.CreateExercise(ctx, owner, validExerciseInput())
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}

	name := "Saltos de canguro"
	if _, err := svc.UpdateExercise(ctx, stranger, exercise.ID, ExercisePatch{Name: &name}); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("UpdateExercise by stranger error = %v, want ErrAccessDenied", err)
	}
	if err := svc.DeleteExercise(ctx, stranger, exercise.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("DeleteExercise by stranger error = %v, want ErrAccessDenied", err)
	}

	updated, err := svc.UpdateExercise(ctx, owner, exercise.ID, ExercisePatch{Name: &name})
	if err != nil || updated.Name != name {
		t.Fatalf("UpdateExercise = %+v, %v", updated, err)
	}

	// Anyone can read the catalog.
	if _, err := svc.GetExercise(ctx, exercise.ID); err != nil {
		t.Fatalf("GetExercise: %v", err)
	}

	if err := svc.DeleteExercise(ctx, owner, exercise.ID); err != nil {
		t.Fatalf("DeleteExercise: %v", err)
	}
	if _, err := svc.GetExercise(ctx, exercise.ID); !errors.Is(err, ErrExerciseNotFound) {
		t.Fatalf("GetExercise after delete error = %v, want ErrExerciseNotFound", err)
	}
}

func TestExerciseMediaUpload(t *testing.T) {
	store := memory.New()
	bucket := newFakeStorage()
	svc := NewExerciseService(store.Exercises(), store.MediaUploads(), bucket, zap.NewNop())
	ctx := context.Background()
	owner := primitive.NewObjectID()

	exercise, err := svc.CreateExercise(ctx, owner, validExerciseInput())
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}

	var ve *ValidationError
	if _, err := svc.RequestMediaUpload(ctx, owner, exercise.ID, "application/pdf"); !errors.As(err, &ve) {
		t.Fatalf("RequestMediaUpload pdf error = %v, want ValidationError", err)
	}
	if _, err := svc.RequestMediaUpload(ctx, primitive.NewObjectID(), exercise.ID, "video/mp4"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("RequestMediaUpload by stranger error = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.GetMediaDownloadURL(ctx, exercise.ID, domain.MediaVideo); !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("GetMediaDownloadURL before upload error = %v, want ErrMediaNotFound", err)
	}

	first, err := svc.RequestMediaUpload(ctx, owner, exercise.ID, "video/mp4")
	if err != nil {
		t.Fatalf("RequestMediaUpload: %v", err)
	}
	wantPrefix := "exercises/" + exercise.ID.Hex() + "/video/"
	if first.Kind != domain.MediaVideo || !strings.HasPrefix(first.ObjectKey, wantPrefix) || !strings.HasSuffix(first.ObjectKey, ".mp4") {
		t.Fatalf("unexpected upload response: %+v", first)
	}

	if _, err := svc.ConfirmMediaUpload(ctx, owner, exercise.ID, first.ObjectKey, "rana.mp4"); !errors.Is(err, ErrUploadNotFoundInStorage) {
		t.Fatalf("confirm before PUT error = %v, want ErrUploadNotFoundInStorage", err)
	}
	if _, err := svc.ConfirmMediaUpload(ctx, owner, exercise.ID, "exercises/"+primitive.NewObjectID().Hex()+"/video/x.mp4", "x.mp4"); !errors.As(err, &ve) {
		t.Fatalf("confirm foreign key error = %v, want ValidationError", err)
	}

	bucket.put(first.ObjectKey, "video/mp4", 2048)
	upload, err := svc.ConfirmMediaUpload(ctx, owner, exercise.ID, first.ObjectKey, "rana.mp4")
	if err != nil {
		t.Fatalf("ConfirmMediaUpload: %v", err)
	}
	if upload.Size != 2048 || upload.Kind != domain.MediaVideo || upload.UploadedBy != owner {
		t.Fatalf("unexpected upload record: %+v", upload)
	}

	url, err := svc.GetMediaDownloadURL(ctx, exercise.ID, domain.MediaVideo)
	if err != nil || !strings.Contains(url, first.ObjectKey) {
		t.Fatalf("GetMediaDownloadURL = %q, %v", url, err)
	}

	// A replacement removes the previous object from the bucket.
	second, err := svc.RequestMediaUpload(ctx, owner, exercise.ID, "video/webm")
	if err != nil {
		t.Fatalf("RequestMediaUpload: %v", err)
	}
	bucket.put(second.ObjectKey, "video/webm", 4096)
	if _, err := svc.ConfirmMediaUpload(ctx, owner, exercise.ID, second.ObjectKey, "rana.webm"); err != nil {
		t.Fatalf("ConfirmMediaUpload: %v", err)
	}
	if len(bucket.deleted) != 1 || bucket.deleted[0] != first.ObjectKey {
		t.Fatalf("deleted = %v, want [%s]", bucket.deleted, first.ObjectKey)
	}

	stored, err := store.Exercises().GetByID(ctx, exercise.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.VideoObjectKey != second.ObjectKey || stored.ImageObjectKey != "" {
		t.Fatalf("media keys = %q / %q", stored.VideoObjectKey, stored.ImageObjectKey)
	}
}
