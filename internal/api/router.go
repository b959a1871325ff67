package api

import (
	"time" // Session lifetime

	"lottery_system/internal/access"     // Access decisions
	"lottery_system/internal/audit"      // Security audit trail
	"lottery_system/internal/domain"     // Roles
	"lottery_system/internal/draws"      // Draw records
	"lottery_system/internal/login"      // Login governor
	"lottery_system/internal/lottery"    // Round engine
	"lottery_system/internal/middleware" // Session and role middleware
	"lottery_system/internal/users"      // Account service
	"lottery_system/internal/utils"      // Token revocation

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the services the HTTP routes call
type Deps struct {
	Users        *users.Service
	Governor     *login.Governor
	Draws        *draws.Manager
	Engine       *lottery.Engine
	Guard        *access.Guard
	Audit        *audit.Logger
	Revoked      *utils.RevocationList
	JWTSecret    string
	SessionTTL   time.Duration
	SecureCookie bool
}

// Register attaches every route to r
func Register(r gin.IRouter, d Deps) {
	r.Use(
		middleware.SessionMiddleware(d.JWTSecret, d.SessionTTL, d.SecureCookie, d.Revoked),
		middleware.LoadAccount(d.Users),
	)
	only := func(operation string, roles ...string) gin.HandlerFunc {
		return middleware.RequireRoles(d.Guard, operation, roles...)
	}

	// Anonymous routes
	r.POST("/register", only("register", access.RoleAnonymous), RegisterHandler(d.Users))
	r.POST("/login", only("login", access.RoleAnonymous), LoginHandler(d.Governor, d.JWTSecret, d.SessionTTL))
	r.POST("/reset", only("reset", access.RoleAnonymous), ResetHandler(d.Governor))

	// Any logged in account
	r.POST("/logout", only("logout", domain.RoleUser, domain.RoleAdmin), LogoutHandler(d.Revoked, d.Audit))
	r.GET("/account", only("account", domain.RoleUser, domain.RoleAdmin), AccountHandler(d.Users))
	r.POST("/account/password", only("change_password", domain.RoleUser, domain.RoleAdmin), ChangePasswordHandler(d.Users))

	// Player routes
	drawGroup := r.Group("/draws")
	drawGroup.POST("", only("submit_draw", domain.RoleUser), SubmitDrawHandler(d.Draws))
	drawGroup.GET("", only("list_draws", domain.RoleUser), ListDrawsHandler(d.Draws))
	drawGroup.GET("/results", only("list_results", domain.RoleUser), ResultsHandler(d.Draws))
	drawGroup.DELETE("/played", only("clear_played", domain.RoleUser), ClearPlayedHandler(d.Draws))

	// Admin routes
	adminGroup := r.Group("/admin")
	adminGroup.POST("/winning-draw", only("generate_winning_draw", domain.RoleAdmin), GenerateWinningDrawHandler(d.Engine))
	adminGroup.GET("/winning-draw", only("view_winning_draw", domain.RoleAdmin), ViewWinningDrawHandler(d.Engine))
	adminGroup.GET("/round", only("round_state", domain.RoleAdmin), RoundStateHandler(d.Engine))
	adminGroup.POST("/run-lottery", only("run_lottery", domain.RoleAdmin), RunLotteryHandler(d.Engine))
	adminGroup.GET("/users", only("list_users", domain.RoleAdmin), ListUsersHandler(d.Users))
	adminGroup.GET("/activity", only("view_activity", domain.RoleAdmin), ActivityHandler(d.Users))
	adminGroup.GET("/logs", only("view_logs", domain.RoleAdmin), LogsHandler(d.Audit))
}
