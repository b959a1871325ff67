package middleware

import (
	"context"  // Account lookups
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"lottery_system/internal/access" // Access decisions
	"lottery_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// AccountLookup loads the account behind an authenticated session
type AccountLookup interface {
	Get(ctx context.Context, id uint) (*domain.User, error)
}

// LoadAccount fetches the session's account on each request so the role comes
// from the database rather than the token. A deleted account turns the session
// back into an anonymous one.
func LoadAccount(accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if !session.Authenticated {
			c.Next()
			return
		}
		user, err := accounts.Get(c.Request.Context(), session.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			c.Set(sessionKey, access.Session{SessionID: session.SessionID, SourceAddr: session.SourceAddr})
			c.Next()
			return
		}
		if err != nil {
			logrus.WithField("user_id", session.UserID).WithError(err).Error("Failed to load account")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		session.Role = user.Role   // Role from database
		session.Email = user.Email // Email from database
		c.Set(sessionKey, session)
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRoles lets the request through only when the session holds one of
// roles; access.RoleAnonymous admits callers that are not logged in.
func RequireRoles(guard *access.Guard, operation string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch guard.Check(CurrentSession(c), operation, roles...) {
		case access.Proceed:
			c.Next()
		case access.AuthRequired:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		}
	}
}
