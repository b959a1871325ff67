package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"lottery_system/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// writeError maps a service error onto a status code and a message that is
// safe to show the caller
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email address already exists"})
	case errors.Is(err, domain.ErrNoActiveDraw):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid winning draw exists. Please add a new winning draw"})
	case errors.Is(err, domain.ErrNoEntries):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No user entries"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please check your login details and try again"})
	case errors.Is(err, domain.ErrLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "Number of incorrect login attempts exceeded. Please reset your session"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
