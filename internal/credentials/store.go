// Package credentials hashes passwords and checks the second and third login factors.
package credentials

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	totpSecretBytes = 20 // 160 bits, encodes to 32 base32 characters
	totpPeriod      = 30 // Seconds per code
	totpSkew        = 1  // Steps accepted either side of the current one
)

// Store holds the tunables for credential handling
type Store struct {
	cost int              // Bcrypt cost factor
	now  func() time.Time // Clock used for TOTP checks

	dummyOnce sync.Once
	dummyHash string // Hash compared against when the account does not exist
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used to validate TOTP codes
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a Store hashing with the given bcrypt cost
func NewStore(cost int, opts ...Option) (*Store, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	s := &Store{cost: cost, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HashPassword returns a salted bcrypt hash of plaintext
func (s *Store) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches storedHash
func (s *Store) VerifyPassword(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// BurnPasswordCheck performs a password comparison whose result is discarded.
// Login calls it for unknown emails so both paths cost one bcrypt comparison.
func (s *Store) BurnPasswordCheck(plaintext string) {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("unused-dummy-password"), s.cost)
		if err == nil {
			s.dummyHash = string(hash)
		}
	})
	_ = bcrypt.CompareHashAndPassword([]byte(s.dummyHash), []byte(plaintext))
}

// GenerateTOTPSecret returns a new random base32 secret
func (s *Store) GenerateTOTPSecret() (string, error) {
	raw := make([]byte, totpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// TOTPURI returns the otpauth:// provisioning URI for an authenticator app
func (s *Store) TOTPURI(secret, accountLabel, issuer string) (string, error) {
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountLabel,
		Period:      totpPeriod,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("build totp uri: %w", err)
	}
	return key.URL(), nil
}

// VerifyTOTP checks code against the current time step and one step either side.
// A code stays valid for its whole window and can be replayed inside it.
func (s *Store) VerifyTOTP(secret, code string) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, s.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// VerifyPostcode compares postcodes ignoring whitespace and case
func VerifyPostcode(stored, submitted string) bool {
	want := normalizePostcode(stored)
	return want != "" && want == normalizePostcode(submitted)
}

func normalizePostcode(postcode string) string {
	return strings.ToLower(strings.Join(strings.Fields(postcode), ""))
}

func decodeSecret(secret string) ([]byte, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return nil, fmt.Errorf("decode totp secret: %w", err)
	}
	return raw, nil
}
