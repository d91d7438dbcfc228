package api

import (
	"net/http"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KidHandler serves the kid profiles of the authenticated user.
type KidHandler struct {
	kidService service.KidService
	log        *zap.Logger
}

func NewKidHandler(kidService service.KidService, log *zap.Logger) *KidHandler {
	return &KidHandler{kidService: kidService, log: log}
}

// --- DTOs ---

type KidPreferencesRequest struct {
	FavoriteExercises []string `json:"favoriteExercises"`
	PreferredTime     string   `json:"preferredTime"`
	MaxDailyExercises int      `json:"maxDailyExercises"`
	Difficulty        string   `json:"difficulty"`
}

func (p *KidPreferencesRequest) toDomain() *domain.KidPreferences {
	if p == nil {
		return nil
	}
	prefs := domain.DefaultKidPreferences()
	if p.FavoriteExercises != nil {
		prefs.FavoriteExercises = p.FavoriteExercises
	}
	if p.PreferredTime != "" {
		prefs.PreferredTime = domain.PreferredTime(p.PreferredTime)
	}
	if p.MaxDailyExercises != 0 {
		prefs.MaxDailyExercises = p.MaxDailyExercises
	}
	if p.Difficulty != "" {
		prefs.Difficulty = domain.Difficulty(p.Difficulty)
	}
	return &prefs
}

type CreateKidRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Age         int                    `json:"age" binding:"required"`
	Avatar      string                 `json:"avatar"`
	BirthDate   string                 `json:"birthDate" binding:"required"`
	Preferences *KidPreferencesRequest `json:"preferences"`
}

type UpdateKidRequest struct {
	Name        *string                `json:"name"`
	Age         *int                   `json:"age"`
	Avatar      *string                `json:"avatar"`
	BirthDate   *string                `json:"birthDate"`
	Preferences *KidPreferencesRequest `json:"preferences"`
}

type UpdateKidStatsRequest struct {
	ThisWeekAssigned *int    `json:"thisWeekAssigned"`
	FavoriteCategory *string `json:"favoriteCategory"`
}

// --- Handler Methods ---

// CreateKid godoc
// @Summary Create a kid profile
// @Tags Kids
// @Security BearerAuth
// @Router /kids [post]
func (h *KidHandler) CreateKid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateKidRequest
	if !bindJSON(c, &req) {
		return
	}

	kid, err := h.kidService.CreateKid(c.Request.Context(), userID, service.KidInput{
		Name:        req.Name,
		Age:         req.Age,
		Avatar:      req.Avatar,
		BirthDate:   req.BirthDate,
		Preferences: req.Preferences.toDomain(),
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, kid)
}

// ListKids godoc
// @Summary List the caller's active kids
// @Tags Kids
// @Security BearerAuth
// @Router /kids [get]
func (h *KidHandler) ListKids(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kids, err := h.kidService.ListKids(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	if kids == nil {
		kids = []domain.Kid{}
	}
	c.JSON(http.StatusOK, kids)
}

func (h *KidHandler) GetKid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kidID, ok := pathID(c, "kidId")
	if !ok {
		return
	}
	kid, err := h.kidService.GetKid(c.Request.Context(), userID, kidID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, kid)
}

func (h *KidHandler) UpdateKid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kidID, ok := pathID(c, "kidId")
	if !ok {
		return
	}
	var req UpdateKidRequest
	if !bindJSON(c, &req) {
		return
	}

	kid, err := h.kidService.UpdateKid(c.Request.Context(), userID, kidID, service.KidPatch{
		Name:        req.Name,
		Age:         req.Age,
		Avatar:      req.Avatar,
		BirthDate:   req.BirthDate,
		Preferences: req.Preferences.toDomain(),
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, kid)
}

// DeleteKid soft-deletes the profile; it disappears from every kid-scoped endpoint.
func (h *KidHandler) DeleteKid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kidID, ok := pathID(c, "kidId")
	if !ok {
		return
	}
	if err := h.kidService.DeleteKid(c.Request.Context(), userID, kidID); err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetKidStats godoc
// @Summary Kid stats with the last 7 days of progress
// @Tags Kids
// @Security BearerAuth
// @Router /kids/{kidId}/stats [get]
func (h *KidHandler) GetKidStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kidID, ok := pathID(c, "kidId")
	if !ok {
		return
	}
	report, err := h.kidService.GetKidStats(c.Request.Context(), userID, kidID)
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *KidHandler) UpdateKidStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kidID, ok := pathID(c, "kidId")
	if !ok {
		return
	}
	var req UpdateKidStatsRequest
	if !bindJSON(c, &req) {
		return
	}

	stats, err := h.kidService.UpdateKidStats(c.Request.Context(), userID, kidID, service.KidStatsPatch{
		ThisWeekAssigned: req.ThisWeekAssigned,
		FavoriteCategory: req.FavoriteCategory,
	})
	if err != nil {
		respondWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
