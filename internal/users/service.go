// Package users registers accounts and manages their credentials.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lottery_system/internal/audit"
	"lottery_system/internal/credentials"
	"lottery_system/internal/cryptox"
	"lottery_system/internal/domain"
	"lottery_system/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// usersCacheTTL bounds how stale the admin user listing may be
const usersCacheTTL = 60 * time.Second

// usersCacheKey holds the admin user listing
var usersCacheKey = utils.CacheKey("admin", "users")

// RegisterInput is the registration form
type RegisterInput struct {
	Email           string `json:"email" validate:"required,lottery_email"`
	Firstname       string `json:"firstname" validate:"required,lottery_name"`
	Lastname        string `json:"lastname" validate:"required,lottery_name"`
	Phone           string `json:"phone" validate:"required,lottery_phone"`
	Password        string `json:"password" validate:"required,lottery_password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	DateOfBirth     string `json:"dob" validate:"required,lottery_dob"`
	Postcode        string `json:"postcode" validate:"required,lottery_postcode"`
}

// ChangePasswordInput is the change password form
type ChangePasswordInput struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,lottery_password"`
	Confirm string `json:"confirm_password" validate:"required,eqfield=New"`
}

// Summary is the admin facing view of an account
type Summary struct {
	ID           uint       `json:"id"`
	Email        string     `json:"email"`
	Firstname    string     `json:"firstname"`
	Lastname     string     `json:"lastname"`
	Phone        string     `json:"phone"`
	RegisteredOn time.Time  `json:"registered_on"`
	CurrentLogin *time.Time `json:"current_login,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CurrentIP    string     `json:"current_ip,omitempty"`
	LastIP       string     `json:"last_ip,omitempty"`
	TotalLogins  int        `json:"total_logins"`
}

// Service implements account operations
type Service struct {
	repo     *Repository
	creds    *credentials.Store
	crypto   *cryptox.Service
	audit    *audit.Logger
	cache    *redis.Client // Optional, nil disables caching
	issuer   string        // TOTP issuer name
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires an account Service
func NewService(repo *Repository, creds *credentials.Store, crypto *cryptox.Service, a *audit.Logger, cache *redis.Client, issuer string) *Service {
	return &Service{
		repo:     repo,
		creds:    creds,
		crypto:   crypto,
		audit:    a,
		cache:    cache,
		issuer:   issuer,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Register validates the form and creates a user account with a fresh TOTP
// secret and RSA keypair.
func (s *Service) Register(ctx context.Context, in RegisterInput, sourceAddr string) (*domain.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Lastname = strings.TrimSpace(in.Lastname)
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user, err := s.newUser(in, domain.RoleUser, "")
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	_ = utils.DeleteCache(ctx, s.cache, usersCacheKey) // Invalidate admin listing
	s.audit.Record(audit.EventRegister, logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
		"ip":      sourceAddr,
	})
	return user, nil
}

// EnsureAdmin creates the admin account if no account with that email exists.
// totpSecret may be empty to generate one.
func (s *Service) EnsureAdmin(ctx context.Context, in RegisterInput, totpSecret string) (*domain.User, bool, error) {
	in.Email = NormalizeEmail(in.Email)
	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	user, err := s.newUser(in, domain.RoleAdmin, totpSecret)
	if err != nil {
		return nil, false, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *Service) newUser(in RegisterInput, role, totpSecret string) (*domain.User, error) {
	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	if totpSecret == "" {
		if totpSecret, err = s.creds.GenerateTOTPSecret(); err != nil {
			return nil, err
		}
	}
	keys, err := s.crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &domain.User{
		Email:        in.Email,
		Password:     hash,
		Role:         role,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Phone:        in.Phone,
		DateOfBirth:  in.DateOfBirth,
		Postcode:     in.Postcode,
		TOTPSecret:   totpSecret,
		PublicKey:    keys.PublicKey,
		PrivateKey:   keys.PrivateKey,
		RegisteredOn: s.now(),
	}, nil
}

// ChangePassword replaces the password of user after checking the current one
func (s *Service) ChangePassword(ctx context.Context, user *domain.User, in ChangePasswordInput, sourceAddr string) error {
	if err := s.validate.Struct(in); err != nil {
		return toValidationError(err)
	}
	if !s.creds.VerifyPassword(in.Current, user.Password) {
		return domain.NewValidationError("current_password", "Current password incorrect")
	}
	if in.New == in.Current {
		return domain.NewValidationError("new_password", "New password must differ from the current password")
	}
	hash, err := s.creds.HashPassword(in.New)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	user.Password = hash

	s.audit.Record(audit.EventPasswordChanged, logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
		"ip":      sourceAddr,
	})
	return nil
}

// TwoFactorURI returns the provisioning URI for the user's authenticator app
func (s *Service) TwoFactorURI(user *domain.User) (string, error) {
	return s.creds.TOTPURI(user.TOTPSecret, user.Email, s.issuer)
}

// Get loads a user by ID
func (s *Service) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByEmail loads a user by email, normalising it first
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

// RecordLogin stamps a successful login on user
func (s *Service) RecordLogin(ctx context.Context, user *domain.User, at time.Time, sourceAddr string) error {
	if err := s.repo.RecordLogin(ctx, user, at, sourceAddr); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	s.InvalidateListing(ctx) // Activity columns changed
	return nil
}

// ListUsers returns every account holding the user role. Results are cached in
// Redis when a client is configured.
func (s *Service) ListUsers(ctx context.Context) ([]Summary, error) {
	return utils.GetOrLoad(ctx, s.cache, usersCacheKey, usersCacheTTL, func(ctx context.Context) ([]Summary, error) {
		list, err := s.repo.ListByRole(ctx, domain.RoleUser)
		if err != nil {
			return nil, err
		}
		out := make([]Summary, len(list))
		for i, u := range list {
			out[i] = summarize(u)
		}
		return out, nil
	})
}

// InvalidateListing drops the cached user listing
func (s *Service) InvalidateListing(ctx context.Context) {
	_ = utils.DeleteCache(ctx, s.cache, usersCacheKey)
}

func summarize(u domain.User) Summary {
	return Summary{
		ID:           u.ID,
		Email:        u.Email,
		Firstname:    u.Firstname,
		Lastname:     u.Lastname,
		Phone:        u.Phone,
		RegisteredOn: u.RegisteredOn,
		CurrentLogin: u.CurrentLogin,
		LastLogin:    u.LastLogin,
		CurrentIP:    u.CurrentIP,
		LastIP:       u.LastIP,
		TotalLogins:  u.TotalLogins,
	}
}
