package middleware

import (
	"net/http" // Cookie attributes
	"strings"  // String manipulation
	"time"     // Cookie lifetime

	"lottery_system/internal/access" // Session model
	"lottery_system/internal/domain" // Importing domain models
	"lottery_system/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Anonymous session IDs
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SessionCookie carries the anonymous session ID
const SessionCookie = "lottery_session"

const (
	sessionKey = "session" // access.Session of the request
	claimsKey  = "claims"  // *utils.Claims of a valid bearer token
	userKey    = "user"    // *domain.User loaded by LoadAccount
)

// SessionMiddleware gives every caller an anonymous session cookie and turns a
// valid bearer token into an authenticated session. Bad, expired or revoked
// tokens leave the caller anonymous.
func SessionMiddleware(secret string, ttl time.Duration, secure bool, revoked *utils.RevocationList) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie) // Reuse the caller's session if it has one
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, int(ttl.Seconds()), "/", "", secure, true)

		session := access.Session{SessionID: sid, SourceAddr: c.ClientIP()}
		if claims := bearerClaims(c, secret, revoked); claims != nil {
			session.Authenticated = true
			session.UserID = claims.UserID
			session.Email = claims.Email
			session.Role = claims.Role
			if claims.SessionID != "" {
				session.SessionID = claims.SessionID // Keep the session the login happened in
			}
			c.Set(claimsKey, claims)
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, secret string, revoked *utils.RevocationList) *utils.Claims {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil // No token, anonymous caller
	}
	claims, err := utils.ParseJWT(strings.TrimPrefix(authHeader, "Bearer "), secret)
	if err != nil {
		logrus.WithField("ip", c.ClientIP()).WithError(err).Debug("Rejected session token")
		return nil
	}
	if revoked != nil {
		isRevoked, err := revoked.Revoked(c.Request.Context(), claims.ID)
		if err != nil {
			logrus.WithError(err).Warn("Revocation lookup failed, treating token as revoked")
			return nil
		}
		if isRevoked {
			return nil
		}
	}
	return claims
}

// CurrentSession returns the request's session; requests that skipped
// SessionMiddleware are anonymous.
func CurrentSession(c *gin.Context) access.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(access.Session); ok {
			return s
		}
	}
	return access.Session{SourceAddr: c.ClientIP()}
}

// CurrentClaims returns the claims of the bearer token, or nil
func CurrentClaims(c *gin.Context) *utils.Claims {
	if v, ok := c.Get(claimsKey); ok {
		claims, _ := v.(*utils.Claims)
		return claims
	}
	return nil
}

// CurrentUser returns the account loaded by LoadAccount, or nil
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		user, _ := v.(*domain.User)
		return user
	}
	return nil
}
