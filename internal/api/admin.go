package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Login timestamps

	"lottery_system/internal/audit"      // Security audit trail
	"lottery_system/internal/lottery"    // Round engine
	"lottery_system/internal/middleware" // Session accessors
	"lottery_system/internal/users"      // Account service

	"github.com/gin-gonic/gin" // Gin web framework
)

// LogLines is how many audit lines the log view shows
const LogLines = 10

// Activity is the login history of one account
type Activity struct {
	ID           uint       `json:"id"`                      // User ID
	Email        string     `json:"email"`                   // User email
	CurrentLogin *time.Time `json:"current_login,omitempty"` // Latest login
	CurrentIP    string     `json:"current_ip,omitempty"`    // Address of the latest login
	LastLogin    *time.Time `json:"last_login,omitempty"`    // Login before that
	LastIP       string     `json:"last_ip,omitempty"`       // Address of the login before that
	TotalLogins  int        `json:"total_logins"`            // Successful logins
}

// GenerateWinningDrawHandler creates the winning draw for the next round
func GenerateWinningDrawHandler(e *lottery.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := e.GenerateWinningDraw(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "New winning draw added", "winning_draw": view})
	}
}

// ViewWinningDrawHandler shows the open winning draw
func ViewWinningDrawHandler(e *lottery.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := e.ViewWinningDraw(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"winning_draw": view})
	}
}

// RoundStateHandler reports where the round cycle is
func RoundStateHandler(e *lottery.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := e.State(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": state})
	}
}

// RunLotteryHandler resolves the round and lists the winners
func RunLotteryHandler(e *lottery.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := e.RunLottery(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		message := "No winners"
		if len(results) > 0 {
			message = "Lottery round resolved"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "results": results})
	}
}

// ListUsersHandler returns a page of user accounts
func ListUsersHandler(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1")) // Parse page number
		if err != nil || page < 1 {
			page = 1 // Default to page 1 if invalid
		}
		pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20")) // Parse page size
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 20 // Default to 20 if invalid
		}

		list, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		total := len(list)
		start := min((page-1)*pageSize, total) // Offset of the page
		end := min(start+pageSize, total)
		totalPages := (total + pageSize - 1) / pageSize // Calculate total pages

		c.JSON(http.StatusOK, gin.H{
			"users":       list[start:end], // Users on this page
			"page":        page,            // Current page
			"page_size":   pageSize,        // Page size
			"total":       total,           // Total number of users
			"total_pages": totalPages,      // Total pages
		})
	}
}

// ActivityHandler returns the login history of every user account
func ActivityHandler(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		activity := make([]Activity, len(list))
		for i, u := range list {
			activity[i] = Activity{
				ID:           u.ID,
				Email:        u.Email,
				CurrentLogin: u.CurrentLogin,
				CurrentIP:    u.CurrentIP,
				LastLogin:    u.LastLogin,
				LastIP:       u.LastIP,
				TotalLogins:  u.TotalLogins,
			}
		}
		c.JSON(http.StatusOK, gin.H{"activity": activity})
	}
}

// LogsHandler returns the newest audit trail lines, newest first
func LogsHandler(a *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, err := a.Tail(LogLines)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": lines})
	}
}
