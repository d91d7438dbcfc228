package api

import (
	"net/http"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RoutineHandler struct {
	routineService service.RoutineService
	log            *zap.Logger
}

func NewRoutineHandler(routineService service.RoutineService, log *zap.Logger) *RoutineHandler {
	return &RoutineHandler{routineService: routineService, log: log}
}

// --- DTOs ---

type RoutineExerciseRequest struct {
	ExerciseID      string `json:"exerciseId" binding:"required"`
	Order           int    `json:"order" binding:"required"`
	DurationSeconds *int   `json:"durationSeconds"`
	Repetitions     *int   `json:"repetitions"`
	RestSeconds     *int   `json:"restSeconds"` // defaults to 10
}

type CreateRoutineRequest struct {
	Name            string                   `json:"name" binding:"required"`
	Description     string                   `json:"description"`
	Category        string                   `json:"category" binding:"required"`
	Difficulty      string                   `json:"difficulty"`
	DurationMinutes int                      `json:"durationMinutes" binding:"required"`
	AgeGroup        string                   `json:"ageGroup" binding:"required"`
	Exercises       []RoutineExerciseRequest `json:"exercises" binding:"dive"`
}

type UpdateRoutineRequest struct {
	Name            *string                  `json:"name"`
	Description     *string                  `json:"description"`
	Category        *string                  `json:"category"`
	Difficulty      *string                  `json:"difficulty"`
	DurationMinutes *int                     `json:"durationMinutes"`
	AgeGroup        *string                  `json:"ageGroup"`
	Exercises       []RoutineExerciseRequest `json:"exercises" binding:"omitempty,dive"`
}

// toRoutineExercises converts request entries, answering 400 on a malformed exercise id.
func toRoutineExercises(c *gin.Context, in []RoutineExerciseRequest) ([]domain.RoutineExercise, bool) {
	if in == nil {
		return nil, true
	}
	out := make([]domain.RoutineExercise, 0, len(in))
	for _, re := range in {
		id, ok := parseID(c, "exerciseId", re.ExerciseID)
		if !ok {
			return nil, false
		}
		rest := domain.DefaultRestSeconds
		if re.RestSeconds != nil {
			rest = *re.RestSeconds
		}
		out = append(out, domain.RoutineExercise{
			ExerciseID:      id,
			Order:           re.Order,
			DurationSeconds: re.DurationSeconds,
			Repetitions:     re.Repetitions,
			RestSeconds:     rest,
		})
	}
	return out, true
}

// --- Handler Methods ---

// CreateRoutine godoc
// @Summary Create a custom routine
// @Description Every exercise id must name an active exercise.
// @Tags Routines
// @Security BearerAuth
// @Router /routines [post]
func (h *RoutineHandler) CreateRoutine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateRoutineRequest
	if !bindJSON(c, &req) {
		return
	}
	exercises, ok := toRoutineExercises(c, req.Exercises)
	if !ok {
		return
	}

	routine, err := h.routineService.CreateRoutine(c.Request.Context(), userID, service.RoutineInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        domain.ExerciseCategory(req.Category),
		Difficulty:      domain.Difficulty(req.Difficulty),
		DurationMinutes: req.DurationMinutes,
		AgeGroup:        domain.AgeGroup(req.AgeGroup),
		Exercises:       exercises,
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, routine)
}

func (h *RoutineHandler) GetRoutine(c *gin.Context) {
	routineID, ok := pathID(c, "routineId")
	if !ok {
		return
	}
	routine, err := h.routineService.GetRoutine(c.Request.Context(), routineID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

// UpdateRoutine edits an owned routine. Sessions already running keep the
// exercise count they started with.
func (h *RoutineHandler) UpdateRoutine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	routineID, ok := pathID(c, "routineId")
	if !ok {
		return
	}
	var req UpdateRoutineRequest
	if !bindJSON(c, &req) {
		return
	}
	exercises, ok := toRoutineExercises(c, req.Exercises)
	if !ok {
		return
	}

	routine, err := h.routineService.UpdateRoutine(c.Request.Context(), userID, routineID, service.RoutinePatch{
		Name:            req.Name,
		Description:     req.Description,
		Category:        optional[domain.ExerciseCategory](req.Category),
		Difficulty:      optional[domain.Difficulty](req.Difficulty),
		DurationMinutes: req.DurationMinutes,
		AgeGroup:        optional[domain.AgeGroup](req.AgeGroup),
		Exercises:       exercises,
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

func (h *RoutineHandler) DeleteRoutine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	routineID, ok := pathID(c, "routineId")
	if !ok {
		return
	}
	if err := h.routineService.DeleteRoutine(c.Request.Context(), userID, routineID); err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
