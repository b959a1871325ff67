package config

import (
	"errors"  // For config errors
	"fmt"     // For error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string        // Application port
	DBDriver   string        // "mysql" or "sqlite"
	DBUser     string        // Database user
	DBPassword string        // Database password
	DBHost     string        // Database host
	DBPort     string        // Database port
	DBName     string        // Database name
	SQLitePath string        // SQLite database file when DBDriver is sqlite
	JWTSecret  string        // JWT secret key
	SessionTTL time.Duration // Lifetime of session tokens and attempt counters
	RedisAddr  string        // Redis server address, empty disables Redis
	RedisPass  string        // Redis password
	RedisDB    int           // Redis database number
	IsProd     bool          // Is production environment

	RSAKeyBits       int    // Modulus size of per-user keypairs
	BcryptCost       int    // Bcrypt cost factor
	TOTPIssuer       string // Issuer shown in authenticator apps
	MaxLoginAttempts int    // Failed logins allowed per session before lockout
	AuditLogPath     string // Security audit trail file

	AdminEmail      string // Seeded admin email
	AdminPassword   string // Seeded admin password
	AdminTOTPSecret string // Seeded admin TOTP secret, empty to generate
	AdminPostcode   string // Seeded admin postcode
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),              // Application port
		DBDriver:   getEnv("DB_DRIVER", "mysql"),            // Database driver
		DBUser:     os.Getenv("DB_USER"),                    // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),                // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),          // Database host
		DBPort:     getEnv("DB_PORT", "3306"),               // Database port
		DBName:     getEnv("DB_NAME", "lottery"),            // Database name
		SQLitePath: getEnv("SQLITE_PATH", "lottery.db"),     // SQLite file
		JWTSecret:  os.Getenv("JWT_SECRET"),                 // JWT secret key
		SessionTTL: getDuration("SESSION_TTL", 2*time.Hour), // Session lifetime
		RedisAddr:  os.Getenv("REDIS_ADDR"),                 // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),                 // Redis password
		RedisDB:    getInt("REDIS_DB", 0),                   // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",          // Is production environment

		RSAKeyBits:       getInt("RSA_KEY_BITS", 2048),
		BcryptCost:       getInt("BCRYPT_COST", 12),
		TOTPIssuer:       getEnv("TOTP_ISSUER", "Stewart Foundation"),
		MaxLoginAttempts: getInt("MAX_LOGIN_ATTEMPTS", 3),
		AuditLogPath:     getEnv("AUDIT_LOG_PATH", "lottery.log"),

		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@email.com"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AdminTOTPSecret: os.Getenv("ADMIN_TOTP_SECRET"),
		AdminPostcode:   getEnv("ADMIN_POSTCODE", "NE4 5TG"),
	}
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.MaxLoginAttempts < 1 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive, got %d", c.MaxLoginAttempts)
	}
	return nil
}

// MySQLDSN builds the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
