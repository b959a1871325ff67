package main

import (
	"context" // context package is needed for Redis operations

	"lottery_system/internal/access"      // Access control guard
	"lottery_system/internal/api"         // Custom package for API handlers
	"lottery_system/internal/audit"       // Security audit trail
	"lottery_system/internal/config"      // Custom package for configuration
	"lottery_system/internal/credentials" // Password and TOTP handling
	"lottery_system/internal/cryptox"     // Draw encryption
	"lottery_system/internal/db"          // Database connection
	"lottery_system/internal/draws"       // Draw records
	"lottery_system/internal/login"       // Login governor
	"lottery_system/internal/lottery"     // Round engine
	"lottery_system/internal/users"       // Account service
	"lottery_system/internal/utils"       // Token revocation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if cfg.DBDriver == "sqlite" {
		if err := db.Migrate(gdb); err != nil { // Development databases migrate on start
			logrus.Fatalf("%v", err)
		}
	}

	// Setup Redis client, optional
	var redisClient *redis.Client
	var attempts login.AttemptStore = login.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		attempts = login.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		logrus.Warn("REDIS_ADDR not set, login attempts and revoked tokens are kept in memory")
	}

	// Security audit trail
	auditLog, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer auditLog.Close()

	creds, err := credentials.NewStore(cfg.BcryptCost)
	if err != nil {
		logrus.Fatalf("invalid bcrypt cost: %v", err)
	}
	crypto, err := cryptox.NewService(cfg.RSAKeyBits)
	if err != nil {
		logrus.Fatalf("invalid RSA key size: %v", err)
	}

	userSvc := users.NewService(users.NewRepository(gdb), creds, crypto, auditLog, redisClient, cfg.TOTPIssuer)
	manager := draws.NewManager(gdb, crypto, auditLog)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.Register(r, api.Deps{
		Users:        userSvc,
		Governor:     login.NewGovernor(userSvc, creds, attempts, auditLog, cfg.MaxLoginAttempts),
		Draws:        manager,
		Engine:       lottery.NewEngine(gdb, crypto, manager),
		Guard:        access.NewGuard(auditLog),
		Audit:        auditLog,
		Revoked:      utils.NewRevocationList(redisClient),
		JWTSecret:    cfg.JWTSecret,
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: cfg.IsProd,
	})

	logrus.WithFields(logrus.Fields{
		"port":      cfg.AppPort,
		"db_driver": cfg.DBDriver,
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
