package api

import (
	"errors"
	"net/http"

	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// respondWithError maps service errors to HTTP responses. Anything it does
// not recognise is logged and reported as a bare 500.
func respondWithError(c *gin.Context, log *zap.Logger, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUploadNotFoundInStorage):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCascadeConflict):
		c.Header("Retry-After", "1")
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// bindJSON binds the body. A value outside its binding tags answers 422
// with the field name; a malformed body answers 400.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(service.FromFieldErrors(err), &ve) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Error(), "field": ve.Field})
		return
	}
	abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
}

// currentUser reads the authenticated user's id, answering 401 when it is missing.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// pathID parses an ObjectID path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseID parses an ObjectID from a request body field.
func parseID(c *gin.Context, field, hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+field+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}
