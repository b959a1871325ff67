package users

import (
	"context"
	"errors"
	"time"

	"lottery_system/internal/domain"

	"gorm.io/gorm"
)

// Repository persists User rows
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail looks a user up by normalised email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID looks a user up by primary key
func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create inserts a new user
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *Repository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordLogin shifts the current login into the last login slot and stamps a new one
func (r *Repository) RecordLogin(ctx context.Context, user *domain.User, at time.Time, ip string) error {
	user.LastLogin = user.CurrentLogin
	user.LastIP = user.CurrentIP
	user.CurrentLogin = &at
	user.CurrentIP = ip
	user.TotalLogins++

	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"last_login":    user.LastLogin,
		"last_ip":       user.LastIP,
		"current_login": user.CurrentLogin,
		"current_ip":    user.CurrentIP,
		"total_logins":  user.TotalLogins,
	}).Error
}

// ListByRole returns every user with the given role ordered by ID
func (r *Repository) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
