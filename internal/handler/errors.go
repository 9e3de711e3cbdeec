package handler

import (
	"errors"
	"log"
	"net/http"

	"tasktracker/internal/middleware"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service error kinds to HTTP status codes. Anything
// uncategorised is logged and reported as a generic failure.
func respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(statusFor(svcErr.Kind), gin.H{"error": svcErr.Message})
		return
	}

	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// currentUserID returns the id put in the context by JWTAuthMiddleware,
// writing the error response itself when it is missing.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}
