// Package draws stores lottery draws encrypted under their owner's public key.
package draws

import (
	"context" // Request scoped queries
	"fmt"     // Error wrapping

	"lottery_system/internal/audit"   // Security audit trail
	"lottery_system/internal/cryptox" // Draw encryption
	"lottery_system/internal/domain"  // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// View is a decrypted, read-only copy of a Draw. It is never handed back to gorm.
type View struct {
	ID            uint   `json:"id"`
	UserID        uint   `json:"user_id"`
	Numbers       string `json:"numbers"`
	BeenPlayed    bool   `json:"been_played"`
	MatchesMaster bool   `json:"matches_master"`
	MasterDraw    bool   `json:"master_draw"`
	LotteryRound  int    `json:"lottery_round"`
}

// Manager creates, reads and deletes draws
type Manager struct {
	db     *gorm.DB         // Database handle
	crypto *cryptox.Service // Encrypts and decrypts numbers
	audit  *audit.Logger    // Receives decrypt failure alerts
}

// NewManager returns a Manager
func NewManager(db *gorm.DB, crypto *cryptox.Service, a *audit.Logger) *Manager {
	return &Manager{db: db, crypto: crypto, audit: a}
}

// Submit validates and stores a new playable draw for user
func (m *Manager) Submit(ctx context.Context, user *domain.User, numbers []int) (*View, error) {
	if err := ValidateNumbers(numbers); err != nil {
		return nil, err
	}
	plaintext := FormatNumbers(numbers)
	ciphertext, err := m.crypto.Encrypt(plaintext, user.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt draw: %w", err)
	}

	draw := domain.Draw{
		UserID:       user.ID,
		Numbers:      ciphertext,
		MasterDraw:   false,
		BeenPlayed:   false,
		LotteryRound: 0,
	}
	if err := m.db.WithContext(ctx).Create(&draw).Error; err != nil {
		return nil, fmt.Errorf("save draw: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"draw_id": draw.ID,
	}).Info("Draw submitted")

	view := newView(draw, plaintext)
	return &view, nil
}

// ListPlayable returns the user's draws that have not been played yet, decrypted
func (m *Manager) ListPlayable(ctx context.Context, user *domain.User) ([]View, error) {
	return m.list(ctx, user, false)
}

// ListResults returns the user's played draws, decrypted
func (m *Manager) ListResults(ctx context.Context, user *domain.User) ([]View, error) {
	return m.list(ctx, user, true)
}

func (m *Manager) list(ctx context.Context, user *domain.User, played bool) ([]View, error) {
	var rows []domain.Draw
	err := m.db.WithContext(ctx).
		Where("user_id = ? AND been_played = ?", user.ID, played).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load draws: %w", err)
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		view, err := m.Reveal(row, user.PrivateKey)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ClearPlayed deletes the user's played draws and reports how many were removed
func (m *Manager) ClearPlayed(ctx context.Context, user *domain.User) (int64, error) {
	res := m.db.WithContext(ctx).
		Where("user_id = ? AND been_played = ? AND master_draw = ?", user.ID, true, false).
		Delete(&domain.Draw{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete played draws: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Reveal decrypts draw with privateKey into a View. A failure means the stored
// ciphertext or the owner's key is damaged; it is raised as an alert.
func (m *Manager) Reveal(draw domain.Draw, privateKey []byte) (View, error) {
	plaintext, err := m.crypto.Decrypt(draw.Numbers, privateKey)
	if err != nil {
		fields := logrus.Fields{"draw_id": draw.ID, "user_id": draw.UserID}
		m.audit.Alert(audit.EventDrawDecryptFailure, fields)
		logrus.WithFields(fields).WithError(err).Error("Draw could not be decrypted")
		return View{}, fmt.Errorf("draw %d: %w", draw.ID, err)
	}
	return newView(draw, plaintext), nil
}

func newView(draw domain.Draw, plaintext string) View {
	return View{
		ID:            draw.ID,
		UserID:        draw.UserID,
		Numbers:       plaintext,
		BeenPlayed:    draw.BeenPlayed,
		MatchesMaster: draw.MatchesMaster,
		MasterDraw:    draw.MasterDraw,
		LotteryRound:  draw.LotteryRound,
	}
}
