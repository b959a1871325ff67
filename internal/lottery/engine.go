// Package lottery runs rounds: it generates the winning draw and scores entries against it.
package lottery

import (
	"context" // Request scoped queries
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"slices"  // Sorting sampled numbers

	"lottery_system/internal/cryptox" // Winning draw encryption
	"lottery_system/internal/domain"  // Importing domain models
	"lottery_system/internal/draws"   // Draw views and number rules

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// State of the current round
type State string

const (
	NoMasterDraw   State = "no_master_draw"   // No winning draw has been generated yet
	MasterDrawOpen State = "master_draw_open" // A winning draw waits to be played
	RoundResolved  State = "round_resolved"   // The latest winning draw has been played
)

// Result is one winning entry of a round
type Result struct {
	Round   int    `json:"lottery_round"`
	Numbers string `json:"numbers"`
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
}

// Engine generates winning draws and resolves rounds
type Engine struct {
	db     *gorm.DB         // Database handle
	crypto *cryptox.Service // Encrypts winning draws
	draws  *draws.Manager   // Decrypts draws into views
	sample Sampler          // Source of winning numbers
}

// Option configures an Engine
type Option func(*Engine)

// WithSampler replaces the random number source
func WithSampler(s Sampler) Option {
	return func(e *Engine) {
		e.sample = s
	}
}

// NewEngine returns an Engine using RandomNumbers unless overridden
func NewEngine(db *gorm.DB, crypto *cryptox.Service, manager *draws.Manager, opts ...Option) *Engine {
	e := &Engine{db: db, crypto: crypto, draws: manager, sample: RandomNumbers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateWinningDraw replaces any open winning draw with a new one for the next round
func (e *Engine) GenerateWinningDraw(ctx context.Context, admin *domain.User) (*draws.View, error) {
	numbers, err := e.sample()
	if err != nil {
		return nil, err
	}
	numbers = slices.Clone(numbers)
	slices.Sort(numbers)
	if err := draws.ValidateNumbers(numbers); err != nil {
		return nil, fmt.Errorf("sampler produced an invalid draw: %w", err)
	}
	plaintext := draws.FormatNumbers(numbers)
	ciphertext, err := e.crypto.Encrypt(plaintext, admin.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt winning draw: %w", err)
	}

	master := domain.Draw{
		UserID:     admin.ID,
		Numbers:    ciphertext,
		MasterDraw: true,
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		round, err := nextRound(tx)
		if err != nil {
			return err
		}
		master.LotteryRound = round
		// Only one open winning draw may exist
		if err := tx.Where("master_draw = ? AND been_played = ?", true, false).Delete(&domain.Draw{}).Error; err != nil {
			return err
		}
		return tx.Create(&master).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save winning draw: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":      admin.ID,
		"lottery_round": master.LotteryRound,
	}).Info("Winning draw generated")

	return &draws.View{
		ID:           master.ID,
		UserID:       master.UserID,
		Numbers:      plaintext,
		MasterDraw:   true,
		LotteryRound: master.LotteryRound,
	}, nil
}

// nextRound is one past the highest round any winning draw has used
func nextRound(tx *gorm.DB) (int, error) {
	var latest domain.Draw
	err := tx.Where("master_draw = ?", true).Order("lottery_round DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return latest.LotteryRound + 1, nil
}

// ViewWinningDraw decrypts the open winning draw. Returns domain.ErrNoActiveDraw
// when there is none.
func (e *Engine) ViewWinningDraw(ctx context.Context, admin *domain.User) (*draws.View, error) {
	master, err := openMaster(e.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	owner, err := e.owner(e.db.WithContext(ctx), admin, master.UserID)
	if err != nil {
		return nil, err
	}
	view, err := e.draws.Reveal(*master, owner.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// State reports where the round cycle currently is
func (e *Engine) State(ctx context.Context) (State, error) {
	var latest domain.Draw
	err := e.db.WithContext(ctx).Where("master_draw = ?", true).Order("lottery_round DESC").First(&latest).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NoMasterDraw, nil
	case err != nil:
		return "", err
	case latest.BeenPlayed:
		return RoundResolved, nil
	default:
		return MasterDrawOpen, nil
	}
}

type update struct {
	id      uint // Draw ID
	matches bool // Draw equals the winning draw
}

// RunLottery scores every unplayed entry against the open winning draw.
// All entries are decrypted before anything is written and the writes commit
// together, so a failure leaves the round untouched. domain.ErrNoEntries means
// nothing was entered; an empty result means nobody won.
func (e *Engine) RunLottery(ctx context.Context, admin *domain.User) ([]Result, error) {
	var (
		results = []Result{}
		round   int
		entries int
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		master, err := openMaster(tx)
		if err != nil {
			return err
		}
		round = master.LotteryRound

		var candidates []domain.Draw
		if err := tx.Where("master_draw = ? AND been_played = ?", false, false).Order("id").Find(&candidates).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return domain.ErrNoEntries
		}
		entries = len(candidates)

		owners, err := loadOwners(tx, master.UserID, candidates)
		if err != nil {
			return err
		}
		masterOwner, ok := owners[master.UserID]
		if !ok {
			masterOwner = admin
		}
		winning, err := e.draws.Reveal(*master, masterOwner.PrivateKey)
		if err != nil {
			return err
		}

		updates := make([]update, 0, len(candidates))
		for _, c := range candidates {
			owner, ok := owners[c.UserID]
			if !ok {
				return fmt.Errorf("draw %d: owner %d: %w", c.ID, c.UserID, domain.ErrNotFound)
			}
			view, err := e.draws.Reveal(c, owner.PrivateKey)
			if err != nil {
				return err
			}
			matches := view.Numbers == winning.Numbers
			if matches {
				results = append(results, Result{Round: round, Numbers: view.Numbers, UserID: owner.ID, Email: owner.Email})
			}
			updates = append(updates, update{id: c.ID, matches: matches})
		}

		if err := tx.Model(&domain.Draw{}).Where("id = ?", master.ID).Update("been_played", true).Error; err != nil {
			return err
		}
		for _, u := range updates {
			err := tx.Model(&domain.Draw{}).Where("id = ?", u.id).Updates(map[string]any{
				"been_played":    true,
				"matches_master": u.matches,
				"lottery_round":  round,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNoEntries) && !errors.Is(err, domain.ErrNoActiveDraw) {
			logrus.WithFields(logrus.Fields{
				"admin_id":      admin.ID,
				"lottery_round": round,
			}).WithError(err).Error("Lottery round failed, no draws were changed")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":      admin.ID,
		"lottery_round": round,
		"entries":       entries,
		"winners":       len(results),
	}).Info("Lottery round resolved")
	return results, nil
}

func openMaster(tx *gorm.DB) (*domain.Draw, error) {
	var master domain.Draw
	err := tx.Where("master_draw = ? AND been_played = ?", true, false).First(&master).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoActiveDraw
	}
	if err != nil {
		return nil, err
	}
	return &master, nil
}

// owner returns the account whose key encrypted a winning draw
func (e *Engine) owner(tx *gorm.DB, admin *domain.User, id uint) (*domain.User, error) {
	if admin.ID == id {
		return admin, nil
	}
	var u domain.User
	if err := tx.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("winning draw owner %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

func loadOwners(tx *gorm.DB, masterOwner uint, candidates []domain.Draw) (map[uint]*domain.User, error) {
	ids := []uint{masterOwner}
	for _, c := range candidates {
		if !slices.Contains(ids, c.UserID) {
			ids = append(ids, c.UserID)
		}
	}
	var rows []domain.User
	if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	owners := make(map[uint]*domain.User, len(rows))
	for i := range rows {
		owners[rows[i].ID] = &rows[i]
	}
	return owners, nil
}
