package api

import (
	"errors"
	"io"
	"net/http"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TrainingHandler exposes the training session engine.
type TrainingHandler struct {
	trainingService service.TrainingService
	log             *zap.Logger
}

func NewTrainingHandler(trainingService service.TrainingService, log *zap.Logger) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService, log: log}
}

// --- DTOs ---

type CreateSessionRequest struct {
	KidID        string  `json:"kidId" binding:"required"`
	RoutineID    string  `json:"routineId" binding:"required"`
	AssignmentID *string `json:"assignmentId"`
}

// CompleteExerciseRequest is optional. It is validated when sent but does
// not change what gets recorded: one exercise per call.
type CompleteExerciseRequest struct {
	CompletionTimeSeconds *int    `json:"completionTimeSeconds" binding:"omitempty,min=1"`
	Rating                *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Notes                 *string `json:"notes" binding:"omitempty,max=200"`
}

type CompleteSessionRequest struct {
	TotalTimeMinutes   int     `json:"totalTimeMinutes" binding:"min=1"`
	ExercisesCompleted int     `json:"exercisesCompleted" binding:"min=0"`
	OverallRating      int     `json:"overallRating" binding:"min=1,max=5"`
	Notes              *string `json:"notes" binding:"omitempty,max=500"`
}

type CompleteSessionResponse struct {
	Session      *domain.TrainingSession `json:"session"`
	StatsUpdated *domain.StatsSummary    `json:"statsUpdated"`
}

// --- Handler Methods ---

// CreateSession godoc
// @Summary Start a training session
// @Tags Training
// @Security BearerAuth
// @Param request body CreateSessionRequest true "Kid, routine and optional assignment"
// @Success 201 {object} domain.TrainingSession
// @Failure 404 {object} gin.H "Kid, routine or assignment not found"
// @Failure 422 {object} gin.H "Routine has no exercises"
// @Router /training/sessions [post]
func (h *TrainingHandler) CreateSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	kidID, ok := parseID(c, "kidId", req.KidID)
	if !ok {
		return
	}
	routineID, ok := parseID(c, "routineId", req.RoutineID)
	if !ok {
		return
	}
	var assignmentID *primitive.ObjectID
	if req.AssignmentID != nil && *req.AssignmentID != "" {
		id, ok := parseID(c, "assignmentId", *req.AssignmentID)
		if !ok {
			return
		}
		assignmentID = &id
	}

	session, err := h.trainingService.CreateSession(c.Request.Context(), userID, kidID, routineID, assignmentID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession godoc
// @Summary Get a training session
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} domain.TrainingSession
// @Failure 404 {object} gin.H "Session not found or not owned"
// @Router /training/sessions/{sessionId} [get]
func (h *TrainingHandler) GetSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	session, err := h.trainingService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CompleteExercise godoc
// @Summary Record one finished exercise
// @Description The session completes itself on the last exercise. Calls on a
// @Description session that is no longer in progress get 404.
// @Tags Training
// @Security BearerAuth
// @Router /training/sessions/{sessionId}/exercise/complete [put]
func (h *TrainingHandler) CompleteExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req CompleteExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	session, err := h.trainingService.CompleteExercise(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CompleteSession godoc
// @Summary Finish a training session
// @Description Completes the session with the caller's summary, completes the linked
// @Description assignment and updates kid stats, all or nothing. 503 means nothing was
// @Description applied and the call may be retried.
// @Tags Training
// @Security BearerAuth
// @Param request body CompleteSessionRequest true "Session summary"
// @Success 200 {object} CompleteSessionResponse
// @Failure 404 {object} gin.H "Session not found or already finished"
// @Failure 422 {object} gin.H "Field out of bounds"
// @Failure 503 {object} gin.H "Concurrent update, retry"
// @Router /training/sessions/{sessionId}/complete [put]
func (h *TrainingHandler) CompleteSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req CompleteSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, summary, err := h.trainingService.CompleteSession(c.Request.Context(), userID, sessionID, domain.SessionCompletion{
		TotalTimeMinutes:   req.TotalTimeMinutes,
		ExercisesCompleted: req.ExercisesCompleted,
		OverallRating:      req.OverallRating,
		Notes:              req.Notes,
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, CompleteSessionResponse{Session: session, StatsUpdated: summary})
}
