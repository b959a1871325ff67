package testutil

import (
	"sync"
	"testing"
	"time"

	"lottery_system/internal/cryptox"
	"lottery_system/internal/domain"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plaintext password of every fixture user
const Password = "Secret1!"

// TOTPSecret is the TOTP secret of every fixture user
const TOTPSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

// Postcode is the postcode of every fixture user
const Postcode = "NE4 5TG"

var (
	cryptoOnce sync.Once
	cryptoSvc  *cryptox.Service
	hashOnce   sync.Once
	hash       string
)

// Crypto returns a shared crypto service
func Crypto(t *testing.T) *cryptox.Service {
	t.Helper()
	cryptoOnce.Do(func() {
		svc, err := cryptox.NewService(cryptox.MinKeyBits)
		if err != nil {
			panic(err)
		}
		cryptoSvc = svc
	})
	return cryptoSvc
}

func passwordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		hash = string(b)
	})
	return hash
}

// CreateUser inserts a user with a real keypair and the fixture credentials
func CreateUser(t *testing.T, gdb *gorm.DB, email, role string) *domain.User {
	t.Helper()

	keys, err := Crypto(t).GenerateKeyPair()
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		Password:     passwordHash(t),
		Role:         role,
		Firstname:    "Test",
		Lastname:     "User",
		Phone:        "0191-123-4567",
		DateOfBirth:  "01/01/1990",
		Postcode:     Postcode,
		TOTPSecret:   TOTPSecret,
		PublicKey:    keys.PublicKey,
		PrivateKey:   keys.PrivateKey,
		RegisteredOn: time.Now(),
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}
