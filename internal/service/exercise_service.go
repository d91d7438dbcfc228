package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"
	"jumpingkids/backend/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrUploadURLError          = errors.New("failed to generate upload URL")
	ErrDownloadURLError        = errors.New("failed to generate download URL")
	ErrUploadNotFoundInStorage = errors.New("no uploaded object found for this key")
)

// ExerciseInput is a full exercise definition.
type ExerciseInput struct {
	Name            string
	Description     string
	Category        domain.ExerciseCategory
	Difficulty      domain.Difficulty
	DurationSeconds int
	AgeGroup        domain.AgeGroup
	Instructions    []string
	Benefits        []string
	EquipmentNeeded []string
	VideoURL        string
	ImageURL        string
}

// ExercisePatch changes only the non-nil fields.
type ExercisePatch struct {
	Name            *string
	Description     *string
	Category        *domain.ExerciseCategory
	Difficulty      *domain.Difficulty
	DurationSeconds *int
	AgeGroup        *domain.AgeGroup
	Instructions    []string
	Benefits        []string
	EquipmentNeeded []string
	VideoURL        *string
	ImageURL        *string
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string           `json:"uploadUrl"`
	ObjectKey string           `json:"objectKey"` // reported back on confirm
	Kind      domain.MediaKind `json:"kind"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, userID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	UpdateExercise(ctx context.Context, userID, exerciseID primitive.ObjectID, patch ExercisePatch) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) error

	// Media upload process
	RequestMediaUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmMediaUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, objectKey, fileName string) (*domain.MediaUpload, error)
	GetMediaDownloadURL(ctx context.Context, exerciseID primitive.ObjectID, kind domain.MediaKind) (string, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	uploadRepo   repository.MediaUploadRepository
	fileStorage  storage.FileStorage
	log          *zap.Logger
}

func NewExerciseService(exerciseRepo repository.ExerciseRepository, uploadRepo repository.MediaUploadRepository, fileStorage storage.FileStorage, log *zap.Logger) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		uploadRepo:   uploadRepo,
		fileStorage:  fileStorage,
		log:          log.Named("exercises"),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CreateExercise adds a custom exercise owned by userID.
func (s *exerciseService) CreateExercise(ctx context.Context, userID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	exercise := &domain.Exercise{
		Name:            in.Name,
		Description:     in.Description,
		Category:        in.Category,
		Difficulty:      in.Difficulty,
		DurationSeconds: in.DurationSeconds,
		AgeGroup:        in.AgeGroup,
		Instructions:    nonNil(in.Instructions),
		Benefits:        nonNil(in.Benefits),
		EquipmentNeeded: nonNil(in.EquipmentNeeded),
		VideoURL:        in.VideoURL,
		ImageURL:        in.ImageURL,
		CreatedBy:       userID.Hex(),
		IsCustom:        true,
		IsActive:        true,
	}
	if exercise.Difficulty == "" {
		exercise.Difficulty = domain.DifficultyBeginner
	}
	if err := validateStruct(exercise); err != nil {
		return nil, err
	}

	if _, err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// GetExercise returns an active exercise. The catalog is readable by any user.
func (s *exerciseService) GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFoundAs(err, ErrExerciseNotFound)
	}
	if !exercise.IsActive {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

// getOwned loads an active exercise and checks userID created it.
func (s *exerciseService) getOwned(ctx context.Context, userID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !exercise.OwnedBy(userID) {
		return nil, ErrAccessDenied
	}
	return exercise, nil
}

func (s *exerciseService) UpdateExercise(ctx context.Context, userID, exerciseID primitive.ObjectID, patch ExercisePatch) (*domain.Exercise, error) {
	exercise, err := s.getOwned(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		exercise.Name = *patch.Name
	}
	if patch.Description != nil {
		exercise.Description = *patch.Description
	}
	if patch.Category != nil {
		exercise.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		exercise.Difficulty = *patch.Difficulty
	}
	if patch.DurationSeconds != nil {
		exercise.DurationSeconds = *patch.DurationSeconds
	}
	if patch.AgeGroup != nil {
		exercise.AgeGroup = *patch.AgeGroup
	}
	if patch.Instructions != nil {
		exercise.Instructions = patch.Instructions
	}
	if patch.Benefits != nil {
		exercise.Benefits = patch.Benefits
	}
	if patch.EquipmentNeeded != nil {
		exercise.EquipmentNeeded = patch.EquipmentNeeded
	}
	if patch.VideoURL != nil {
		exercise.VideoURL = *patch.VideoURL
	}
	if patch.ImageURL != nil {
		exercise.ImageURL = *patch.ImageURL
	}
	if err := validateStruct(exercise); err != nil {
		return nil, err
	}

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, notFoundAs(err, ErrExerciseNotFound)
	}
	return exercise, nil
}

// DeleteExercise soft-deletes an exercise. Routines referencing it keep their entries.
func (s *exerciseService) DeleteExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) error {
	if _, err := s.getOwned(ctx, userID, exerciseID); err != nil {
		return err
	}
	if err := s.exerciseRepo.Deactivate(ctx, exerciseID, userID.Hex()); err != nil {
		return notFoundAs(err, ErrExerciseNotFound)
	}
	return nil
}

func mediaKindFor(contentType string) (domain.MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return domain.MediaVideo, true
	case strings.HasPrefix(contentType, "image/"):
		return domain.MediaImage, true
	}
	return "", false
}

func mediaKeyPrefix(exerciseID primitive.ObjectID) string {
	return path.Join("exercises", exerciseID.Hex()) + "/"
}

// RequestMediaUpload hands out a presigned PUT URL for a video or image of an owned exercise.
func (s *exerciseService) RequestMediaUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	kind, ok := mediaKindFor(contentType)
	if !ok {
		return nil, invalid("contentType", "must be a video/* or image/* type")
	}
	if _, err := s.getOwned(ctx, userID, exerciseID); err != nil {
		return nil, err
	}

	ext := ""
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 {
		ext = parts[1]
	}
	objectKey := mediaKeyPrefix(exerciseID) + fmt.Sprintf("%s/%s.%s", kind, uuid.NewString(), ext)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.log.Error("presign upload failed", zap.String("exercise_id", exerciseID.Hex()), zap.Error(err))
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		Kind:      kind,
		ExpiresAt: time.Now().UTC().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

// ConfirmMediaUpload is called after the client PUT the file. It records the
// upload, points the exercise at the new object and removes the one it replaces.
func (s *exerciseService) ConfirmMediaUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, objectKey, fileName string) (*domain.MediaUpload, error) {
	if !strings.HasPrefix(objectKey, mediaKeyPrefix(exerciseID)) {
		return nil, invalid("objectKey", "does not belong to this exercise")
	}
	exercise, err := s.getOwned(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}

	info, err := s.fileStorage.StatObject(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrUploadNotFoundInStorage
		}
		return nil, err
	}
	kind, ok := mediaKindFor(info.ContentType)
	if !ok {
		return nil, invalid("objectKey", "stored object is not a video or image")
	}

	upload := &domain.MediaUpload{
		ExerciseID:  exerciseID,
		UploadedBy:  userID,
		Kind:        kind,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: info.ContentType,
		Size:        info.Size,
	}
	if _, err := s.uploadRepo.Create(ctx, upload); err != nil {
		return nil, err
	}
	if err := s.exerciseRepo.SetMedia(ctx, exerciseID, kind, objectKey); err != nil {
		return nil, notFoundAs(err, ErrExerciseNotFound)
	}

	previous := exercise.VideoObjectKey
	if kind == domain.MediaImage {
		previous = exercise.ImageObjectKey
	}
	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			// best effort, the new media is already linked
			s.log.Warn("failed to delete replaced media", zap.String("key", previous), zap.Error(err))
		}
	}
	return upload, nil
}

func (s *exerciseService) GetMediaDownloadURL(ctx context.Context, exerciseID primitive.ObjectID, kind domain.MediaKind) (string, error) {
	exercise, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return "", err
	}

	key := exercise.VideoObjectKey
	if kind == domain.MediaImage {
		key = exercise.ImageObjectKey
	}
	if key == "" {
		return "", ErrMediaNotFound
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.log.Error("presign download failed", zap.String("key", key), zap.Error(err))
		return "", ErrDownloadURLError
	}
	return url, nil
}
