package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"lottery_system/internal/audit"      // Security audit trail
	"lottery_system/internal/domain"     // Domain errors
	"lottery_system/internal/login"      // Login governor
	"lottery_system/internal/middleware" // Session accessors
	"lottery_system/internal/users"      // Account service
	"lottery_system/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Account email
	Password string `json:"password" binding:"required"` // Password must be provided
	Postcode string `json:"postcode" binding:"required"` // Postcode must be provided
	PIN      string `json:"pin" binding:"required"`      // Authenticator code
}

// Response struct for authentication
type AuthResponse struct {
	Token     string `json:"token"`      // JWT token
	Role      string `json:"role"`       // Role of the logged in account
	ExpiresIn int    `json:"expires_in"` // Token lifetime in seconds
}

// RegisterHandler creates a user account and returns its authenticator setup
func RegisterHandler(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req users.RegisterInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := svc.Register(c.Request.Context(), req, c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}
		uri, err := svc.TwoFactorURI(user) // Provisioning URI for the authenticator app
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":     "User registered successfully",
			"email":       user.Email,
			"totp_secret": user.TOTPSecret,
			"totp_uri":    uri,
		})
	}
}

// LoginHandler checks the four login factors and issues a session token
func LoginHandler(gov *login.Governor, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.CurrentSession(c)
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		creds := login.Credentials{
			Email:    req.Email,
			Password: req.Password,
			Postcode: req.Postcode,
			TOTPCode: req.PIN,
		}
		authed, err := gov.Login(c.Request.Context(), session.SessionID, creds, c.ClientIP())
		if errors.Is(err, domain.ErrInvalidCredentials) {
			remaining, rerr := gov.Remaining(c.Request.Context(), session.SessionID)
			if rerr != nil {
				writeError(c, rerr)
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":              "Please check your login details and try again",
				"attempts_remaining": remaining,
			})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		token, err := utils.GenerateJWT(authed.UserID, authed.Email, authed.Role, authed.SessionID, jwtSecret, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, Role: authed.Role, ExpiresIn: int(ttl.Seconds())})
	}
}

// ResetHandler clears the failed login counter of the caller's session
func ResetHandler(gov *login.Governor) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.CurrentSession(c)
		if err := gov.Reset(c.Request.Context(), session.SessionID, c.ClientIP()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Login attempts reset"})
	}
}

// LogoutHandler revokes the presented token
func LogoutHandler(revoked *utils.RevocationList, a *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.CurrentSession(c)
		if claims := middleware.CurrentClaims(c); claims != nil && claims.ExpiresAt != nil {
			if err := revoked.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				writeError(c, err)
				return
			}
		}
		a.Record(audit.EventLogout, logrus.Fields{
			"user_id": session.UserID,
			"email":   session.Email,
			"ip":      c.ClientIP(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// AccountHandler returns the caller's account details and authenticator URI
func AccountHandler(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		uri, err := svc.TwoFactorURI(user)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":            user.ID,
			"email":         user.Email,
			"firstname":     user.Firstname,
			"lastname":      user.Lastname,
			"phone":         user.Phone,
			"dob":           user.DateOfBirth,
			"role":          user.Role,
			"registered_on": user.RegisteredOn,
			"last_login":    user.LastLogin,
			"last_ip":       user.LastIP,
			"totp_uri":      uri,
		})
	}
}

// ChangePasswordHandler replaces the caller's password
func ChangePasswordHandler(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		var req users.ChangePasswordInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.ChangePassword(c.Request.Context(), user, req, c.ClientIP()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
