package api

import (
	"net/http"

	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssignmentHandler struct {
	assignmentService service.AssignmentService
	log               *zap.Logger
}

func NewAssignmentHandler(assignmentService service.AssignmentService, log *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, log: log}
}

// --- DTOs ---

type CreateAssignmentRequest struct {
	KidID        string `json:"kidId" binding:"required"`
	RoutineID    string `json:"routineId" binding:"required"`
	AssignedDate string `json:"assignedDate"` // YYYY-MM-DD, defaults to today
}

type CompleteAssignmentRequest struct {
	CompletionTimeMinutes int    `json:"completionTimeMinutes"`
	ExercisesCompleted    int    `json:"exercisesCompleted"`
	Notes                 string `json:"notes"`
}

// --- Handler Methods ---

// CreateAssignment godoc
// @Summary Assign a routine to one of the caller's kids
// @Tags Assignments
// @Security BearerAuth
// @Param request body CreateAssignmentRequest true "Assignment"
// @Success 201 {object} domain.Assignment
// @Failure 404 {object} gin.H "Kid or routine not found"
// @Router /assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateAssignmentRequest
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

	assignment, err := h.assignmentService.CreateAssignment(c.Request.Context(), userID, kidID, routineID, req.AssignedDate)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	assignmentID, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}
	assignment, err := h.assignmentService.GetAssignment(c.Request.Context(), userID, assignmentID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// CompleteAssignment marks an assignment done without a training session.
func (h *AssignmentHandler) CompleteAssignment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	assignmentID, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}
	var req CompleteAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.assignmentService.CompleteAssignment(c.Request.Context(), userID, assignmentID,
		req.CompletionTimeMinutes, req.ExercisesCompleted, req.Notes)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}
