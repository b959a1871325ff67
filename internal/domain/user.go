package domain

import "time"

// Roles a user account can hold
const (
	RoleUser  = "user"  // Regular player
	RoleAdmin = "admin" // Lottery administrator
)

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey"`                    // Primary key
	Email    string `gorm:"size:100;uniqueIndex;not null"` // Lower-cased, trimmed email
	Password string `gorm:"size:100;not null"`             // Bcrypt hash
	Role     string `gorm:"size:20;not null;default:user"` // Role: user or admin

	Firstname   string `gorm:"size:100;not null"` // First name
	Lastname    string `gorm:"size:100;not null"` // Last name
	Phone       string `gorm:"size:100;not null"` // Phone number (NNNN-NNN-NNNN)
	DateOfBirth string `gorm:"size:10;not null"`  // DD/MM/YYYY
	Postcode    string `gorm:"size:10;not null"`  // Secondary knowledge factor
	TOTPSecret  string `gorm:"size:32;not null"`  // Base32 TOTP shared secret, never changes

	PublicKey  []byte `gorm:"not null"` // PEM encoded RSA public key
	PrivateKey []byte `gorm:"not null"` // PEM encoded RSA private key

	RegisteredOn time.Time  `gorm:"not null"`           // Registration timestamp
	CurrentIP    string     `gorm:"size:45"`            // Source address of the current login
	LastIP       string     `gorm:"size:45"`            // Source address of the previous login
	TotalLogins  int        `gorm:"not null;default:0"` // Number of successful logins
	CurrentLogin *time.Time // Timestamp of the current login
	LastLogin    *time.Time // Timestamp of the previous login

	Draws []Draw `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // One-to-many relationship with Draw
}
