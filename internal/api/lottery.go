package api

import (
	"net/http" // HTTP status codes

	"lottery_system/internal/draws"      // Draw records
	"lottery_system/internal/middleware" // Session accessors

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for submitting a draw
type DrawRequest struct {
	Numbers []int `json:"numbers" binding:"required"` // Six ascending numbers
}

// SubmitDrawHandler stores a new draw for the caller
func SubmitDrawHandler(m *draws.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DrawRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		view, err := m.Submit(c.Request.Context(), middleware.CurrentUser(c), req.Numbers)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Draw submitted", "draw": view})
	}
}

// ListDrawsHandler returns the caller's playable draws
func ListDrawsHandler(m *draws.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := m.ListPlayable(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"draws": views})
	}
}

// ResultsHandler returns the caller's played draws and whether they matched
func ResultsHandler(m *draws.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := m.ListResults(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": views})
	}
}

// ClearPlayedHandler deletes the caller's played draws
func ClearPlayedHandler(m *draws.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := m.ClearPlayed(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	}
}
