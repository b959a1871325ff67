package main

import (
	"context" // Context for seeding

	"lottery_system/internal/audit"       // Security audit trail
	"lottery_system/internal/config"      // Custom import path (Config)
	"lottery_system/internal/credentials" // Password and TOTP handling
	"lottery_system/internal/cryptox"     // Keypair generation
	"lottery_system/internal/db"          // Custom import path (Database)
	"lottery_system/internal/users"       // Account service

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.Info("Database migrated successfully")

	// Seed the administrator account
	if cfg.AdminPassword == "" {
		logrus.Warn("ADMIN_PASSWORD not set, skipping admin account")
		return
	}
	creds, err := credentials.NewStore(cfg.BcryptCost)
	if err != nil {
		logrus.Fatalf("invalid bcrypt cost: %v", err)
	}
	crypto, err := cryptox.NewService(cfg.RSAKeyBits)
	if err != nil {
		logrus.Fatalf("invalid RSA key size: %v", err)
	}
	svc := users.NewService(users.NewRepository(gdb), creds, crypto, audit.Discard(), nil, cfg.TOTPIssuer)
	admin, created, err := svc.EnsureAdmin(context.Background(), users.RegisterInput{
		Email:       cfg.AdminEmail,
		Firstname:   "Alice",
		Lastname:    "Jones",
		Phone:       "0191-123-4567",
		Password:    cfg.AdminPassword,
		DateOfBirth: "01/01/1990",
		Postcode:    cfg.AdminPostcode,
	}, cfg.AdminTOTPSecret)
	if err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
	if !created {
		logrus.WithField("email", admin.Email).Info("Admin account already exists")
		return
	}
	uri, err := svc.TwoFactorURI(admin)
	if err != nil {
		logrus.Fatalf("failed to build admin TOTP URI: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"email":    admin.Email,
		"totp_uri": uri,
	}).Info("Admin account created")
}
