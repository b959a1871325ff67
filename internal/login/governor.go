// Package login runs the four factor login and limits failed attempts per session.
package login

import (
	"context" // Request scoped lookups
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"time"    // Login timestamps

	"lottery_system/internal/access"      // Session model
	"lottery_system/internal/audit"       // Security audit trail
	"lottery_system/internal/credentials" // Factor checks
	"lottery_system/internal/domain"      // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// DefaultMaxAttempts is the number of failures that locks a session
const DefaultMaxAttempts = 3

// Accounts is the user lookup the governor needs
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	RecordLogin(ctx context.Context, user *domain.User, at time.Time, sourceAddr string) error
}

// Credentials is a submitted login form
type Credentials struct {
	Email    string // Account email, normalised by the lookup
	Password string // Plaintext password
	Postcode string // Postcode as typed, spacing and case ignored
	TOTPCode string // Current authenticator code
}

// Governor evaluates logins and keeps the per-session attempt counter
type Governor struct {
	accounts    Accounts           // Account lookup and login stamping
	creds       *credentials.Store // Factor verification
	store       AttemptStore       // Per-session attempt counters
	audit       *audit.Logger      // Security audit trail
	maxAttempts int                // Attempts allowed before lockout
	now         func() time.Time   // Clock for login timestamps
}

// NewGovernor wires a Governor; maxAttempts below 1 falls back to DefaultMaxAttempts
func NewGovernor(accounts Accounts, creds *credentials.Store, store AttemptStore, a *audit.Logger, maxAttempts int) *Governor {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Governor{
		accounts:    accounts,
		creds:       creds,
		store:       store,
		audit:       a,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Login checks all four factors and returns the authenticated session.
// Failures return domain.ErrInvalidCredentials, or domain.ErrLocked once the
// session has used up its attempts. The attempt is counted before any factor
// is checked, so parallel requests on one session cannot exceed the limit.
func (g *Governor) Login(ctx context.Context, sessionID string, in Credentials, sourceAddr string) (access.Session, error) {
	attempt, err := g.store.Increment(ctx, sessionID) // Reserve the attempt
	if err != nil {
		return access.Session{}, fmt.Errorf("record login attempt: %w", err)
	}
	if attempt > g.maxAttempts {
		return access.Session{}, domain.ErrLocked
	}

	user, ok, err := g.verify(ctx, in)
	if err != nil {
		return access.Session{}, err
	}
	if !ok {
		return access.Session{}, g.fail(attempt, in.Email, sourceAddr)
	}

	if err := g.store.Reset(ctx, sessionID); err != nil {
		return access.Session{}, fmt.Errorf("reset login attempts: %w", err)
	}
	if err := g.accounts.RecordLogin(ctx, user, g.now(), sourceAddr); err != nil {
		return access.Session{}, err
	}
	g.audit.Record(audit.EventLoginSuccess, logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
		"ip":      sourceAddr,
	})
	return access.Session{
		Authenticated: true,
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		SourceAddr:    sourceAddr,
		SessionID:     sessionID,
	}, nil
}

// verify runs every factor check regardless of earlier failures so the
// response time does not reveal which one failed.
func (g *Governor) verify(ctx context.Context, in Credentials) (*domain.User, bool, error) {
	user, err := g.accounts.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("look up account: %w", err)
	}
	if user == nil {
		g.creds.BurnPasswordCheck(in.Password)
		return nil, false, nil
	}
	passwordOK := g.creds.VerifyPassword(in.Password, user.Password)
	postcodeOK := credentials.VerifyPostcode(user.Postcode, in.Postcode)
	totpOK := g.creds.VerifyTOTP(user.TOTPSecret, in.TOTPCode)
	return user, passwordOK && postcodeOK && totpOK, nil
}

func (g *Governor) fail(attempt int, email, sourceAddr string) error {
	g.audit.Record(audit.EventLoginFailure, logrus.Fields{
		"email":    email,
		"ip":       sourceAddr,
		"attempts": attempt,
	})
	if attempt >= g.maxAttempts {
		return domain.ErrLocked
	}
	return domain.ErrInvalidCredentials
}

// Remaining reports how many attempts the session has left
func (g *Governor) Remaining(ctx context.Context, sessionID string) (int, error) {
	attempts, err := g.store.Attempts(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return max(g.maxAttempts-attempts, 0), nil
}

// Reset clears the session's counter. Anonymous callers may use it.
func (g *Governor) Reset(ctx context.Context, sessionID, sourceAddr string) error {
	if err := g.store.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	g.audit.Record(audit.EventLockoutReset, logrus.Fields{"ip": sourceAddr})
	return nil
}
