package api

import (
	"net/http"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
	log             *zap.Logger
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService, log *zap.Logger) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService, log: log}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateExerciseRequest defines the expected JSON for creating an exercise.
type CreateExerciseRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	Category        string   `json:"category" binding:"required"`
	Difficulty      string   `json:"difficulty"`
	DurationSeconds int      `json:"durationSeconds" binding:"required"`
	AgeGroup        string   `json:"ageGroup" binding:"required"`
	Instructions    []string `json:"instructions"`
	Benefits        []string `json:"benefits"`
	EquipmentNeeded []string `json:"equipmentNeeded"`
	VideoURL        string   `json:"videoUrl" binding:"omitempty,url"`
	ImageURL        string   `json:"imageUrl" binding:"omitempty,url"`
}

type UpdateExerciseRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category"`
	Difficulty      *string  `json:"difficulty"`
	DurationSeconds *int     `json:"durationSeconds"`
	AgeGroup        *string  `json:"ageGroup"`
	Instructions    []string `json:"instructions"`
	Benefits        []string `json:"benefits"`
	EquipmentNeeded []string `json:"equipmentNeeded"`
	VideoURL        *string  `json:"videoUrl" binding:"omitempty,url"`
	ImageURL        *string  `json:"imageUrl" binding:"omitempty,url"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Difficulty       string    `json:"difficulty"`
	DurationSeconds  int       `json:"durationSeconds"`
	AgeGroup         string    `json:"ageGroup"`
	Instructions     []string  `json:"instructions"`
	Benefits         []string  `json:"benefits"`
	EquipmentNeeded  []string  `json:"equipmentNeeded"`
	VideoURL         string    `json:"videoUrl,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	HasUploadedVideo bool      `json:"hasUploadedVideo"`
	HasUploadedImage bool      `json:"hasUploadedImage"`
	CreatedBy        string    `json:"createdBy"`
	IsCustom         bool      `json:"isCustom"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName" binding:"required"`
}

type MediaUploadResponse struct {
	ID          string    `json:"id"`
	ExerciseID  string    `json:"exerciseId"`
	Kind        string    `json:"kind"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:               ex.ID.Hex(),
		Name:             ex.Name,
		Description:      ex.Description,
		Category:         string(ex.Category),
		Difficulty:       string(ex.Difficulty),
		DurationSeconds:  ex.DurationSeconds,
		AgeGroup:         string(ex.AgeGroup),
		Instructions:     ex.Instructions,
		Benefits:         ex.Benefits,
		EquipmentNeeded:  ex.EquipmentNeeded,
		VideoURL:         ex.VideoURL,
		ImageURL:         ex.ImageURL,
		HasUploadedVideo: ex.VideoObjectKey != "",
		HasUploadedImage: ex.ImageObjectKey != "",
		CreatedBy:        ex.CreatedBy,
		IsCustom:         ex.IsCustom,
		CreatedAt:        ex.CreatedAt,
		UpdatedAt:        ex.UpdatedAt,
	}
}

func MapUploadToResponse(u *domain.MediaUpload) MediaUploadResponse {
	return MediaUploadResponse{
		ID:          u.ID.Hex(),
		ExerciseID:  u.ExerciseID.Hex(),
		Kind:        string(u.Kind),
		FileName:    u.FileName,
		ContentType: u.ContentType,
		Size:        u.Size,
		UploadedAt:  u.UploadedAt,
	}
}

func optional[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create a custom exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body CreateExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse
// @Failure 422 {object} gin.H "Field out of bounds"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateExerciseRequest
	if !bindJSON(c, &req) {
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), userID, service.ExerciseInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        domain.ExerciseCategory(req.Category),
		Difficulty:      domain.Difficulty(req.Difficulty),
		DurationSeconds: req.DurationSeconds,
		AgeGroup:        domain.AgeGroup(req.AgeGroup),
		Instructions:    req.Instructions,
		Benefits:        req.Benefits,
		EquipmentNeeded: req.EquipmentNeeded,
		VideoURL:        req.VideoURL,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	exercise, err := h.exerciseService.GetExercise(c.Request.Context(), exerciseID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// UpdateExercise godoc
// @Summary Update an owned exercise
// @Tags Exercises
// @Security BearerAuth
// @Failure 403 {object} gin.H "Not the owner"
// @Router /exercises/{exerciseId} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	var req UpdateExerciseRequest
	if !bindJSON(c, &req) {
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), userID, exerciseID, service.ExercisePatch{
		Name:            req.Name,
		Description:     req.Description,
		Category:        optional[domain.ExerciseCategory](req.Category),
		Difficulty:      optional[domain.Difficulty](req.Difficulty),
		DurationSeconds: req.DurationSeconds,
		AgeGroup:        optional[domain.AgeGroup](req.AgeGroup),
		Instructions:    req.Instructions,
		Benefits:        req.Benefits,
		EquipmentNeeded: req.EquipmentNeeded,
		VideoURL:        req.VideoURL,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	if err := h.exerciseService.DeleteExercise(c.Request.Context(), userID, exerciseID); err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestUploadURL godoc
// @Summary Get a presigned URL to upload exercise media
// @Description Returns a presigned PUT URL for a video or image. The client uploads
// @Description directly to storage and then calls the confirm endpoint with objectKey.
// @Tags Exercises
// @Security BearerAuth
// @Param request body RequestUploadURLRequest true "Media content type"
// @Success 200 {object} service.UploadURLResponse
// @Router /exercises/{exerciseId}/media/upload-url [post]
func (h *ExerciseHandler) RequestUploadURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	var req RequestUploadURLRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.exerciseService.RequestMediaUpload(c.Request.Context(), userID, exerciseID, req.ContentType)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm an uploaded media object
// @Tags Exercises
// @Security BearerAuth
// @Param request body ConfirmUploadRequest true "Uploaded object"
// @Success 201 {object} MediaUploadResponse
// @Failure 400 {object} gin.H "Object not found in storage"
// @Router /exercises/{exerciseId}/media/confirm [post]
func (h *ExerciseHandler) ConfirmUpload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := h.exerciseService.ConfirmMediaUpload(c.Request.Context(), userID, exerciseID, req.ObjectKey, req.FileName)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, MapUploadToResponse(upload))
}

// GetMediaURL returns a short-lived download URL for the exercise's video or image.
func (h *ExerciseHandler) GetMediaURL(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	kind := domain.MediaKind(c.Param("kind"))
	if kind != domain.MediaVideo && kind != domain.MediaImage {
		abortWithError(c, http.StatusBadRequest, "Media kind must be video or image.")
		return
	}

	url, err := h.exerciseService.GetMediaDownloadURL(c.Request.Context(), exerciseID, kind)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
