package draws

import (
	"context"
	"testing"

	"lottery_system/internal/audit"
	"lottery_system/internal/domain"
	"lottery_system/internal/testutil"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ManagerSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	hook    *test.Hook
	manager *Manager
	alice   *domain.User
	bob     *domain.User
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.SetupTestDatabase(s.T())

	var l *logrus.Logger
	l, s.hook = test.NewNullLogger()
	s.manager = NewManager(s.db, testutil.Crypto(s.T()), audit.New(l))
	s.alice = testutil.CreateUser(s.T(), s.db, "alice@example.com", domain.RoleUser)
	s.bob = testutil.CreateUser(s.T(), s.db, "bob@example.com", domain.RoleUser)
}

func (s *ManagerSuite) TestSubmitStoresCiphertext() {
	view, err := s.manager.Submit(s.ctx, s.alice, []int{1, 2, 3, 4, 5, 6})
	s.Require().NoError(err)
	s.Equal("1 2 3 4 5 6", view.Numbers)

	var row domain.Draw
	s.Require().NoError(s.db.First(&row, view.ID).Error)
	s.Equal(s.alice.ID, row.UserID)
	s.NotContains(string(row.Numbers), "1 2 3 4 5 6")
	s.False(row.BeenPlayed)
	s.False(row.MasterDraw)
	s.False(row.MatchesMaster)
	s.Zero(row.LotteryRound)

	plaintext, err := testutil.Crypto(s.T()).Decrypt(row.Numbers, s.alice.PrivateKey)
	s.Require().NoError(err)
	s.Equal("1 2 3 4 5 6", plaintext)

	_, err = testutil.Crypto(s.T()).Decrypt(row.Numbers, s.bob.PrivateKey)
	s.ErrorIs(err, domain.ErrDecryption)
}

func (s *ManagerSuite) TestSubmitRejectsInvalidSets() {
	_, err := s.manager.Submit(s.ctx, s.alice, []int{1, 1, 2, 3, 4, 5})
	s.ErrorIs(err, domain.ErrValidation)
	_, err = s.manager.Submit(s.ctx, s.alice, []int{5, 4, 3, 2, 1, 6})
	s.ErrorIs(err, domain.ErrValidation)

	var count int64
	s.Require().NoError(s.db.Model(&domain.Draw{}).Count(&count).Error)
	s.Zero(count)
}

func (s *ManagerSuite) TestListPlayableIsOwnerScopedAndIdempotent() {
	_, err := s.manager.Submit(s.ctx, s.alice, []int{1, 2, 3, 4, 5, 6})
	s.Require().NoError(err)
	_, err = s.manager.Submit(s.ctx, s.alice, []int{10, 20, 30, 40, 50, 60})
	s.Require().NoError(err)
	_, err = s.manager.Submit(s.ctx, s.bob, []int{7, 8, 9, 10, 11, 12})
	s.Require().NoError(err)

	var before []domain.Draw
	s.Require().NoError(s.db.Order("id").Find(&before).Error)

	first, err := s.manager.ListPlayable(s.ctx, s.alice)
	s.Require().NoError(err)
	second, err := s.manager.ListPlayable(s.ctx, s.alice)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Require().Len(first, 2)
	s.Equal("1 2 3 4 5 6", first[0].Numbers)
	s.Equal("10 20 30 40 50 60", first[1].Numbers)

	var after []domain.Draw
	s.Require().NoError(s.db.Order("id").Find(&after).Error)
	s.Equal(before, after, "listing must not touch stored ciphertext")
}

func (s *ManagerSuite) TestListResultsAndClearPlayed() {
	played, err := s.manager.Submit(s.ctx, s.alice, []int{1, 2, 3, 4, 5, 6})
	s.Require().NoError(err)
	_, err = s.manager.Submit(s.ctx, s.alice, []int{2, 3, 4, 5, 6, 7})
	s.Require().NoError(err)
	bobs, err := s.manager.Submit(s.ctx, s.bob, []int{1, 2, 3, 4, 5, 6})
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&domain.Draw{}).
		Where("id IN ?", []uint{played.ID, bobs.ID}).
		Updates(map[string]any{"been_played": true, "lottery_round": 1}).Error)

	results, err := s.manager.ListResults(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(played.ID, results[0].ID)
	s.Equal("1 2 3 4 5 6", results[0].Numbers)
	s.Equal(1, results[0].LotteryRound)

	removed, err := s.manager.ClearPlayed(s.ctx, s.alice)
	s.Require().NoError(err)
	s.EqualValues(1, removed)

	results, err = s.manager.ListResults(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Empty(results)

	playable, err := s.manager.ListPlayable(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Len(playable, 1)

	bobResults, err := s.manager.ListResults(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Len(bobResults, 1, "other users' played draws are untouched")
}

func (s *ManagerSuite) TestCorruptDrawIsReportedNotPanicking() {
	view, err := s.manager.Submit(s.ctx, s.alice, []int{1, 2, 3, 4, 5, 6})
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(&domain.Draw{}).Where("id = ?", view.ID).
		Update("numbers", []byte("garbage")).Error)

	_, err = s.manager.ListPlayable(s.ctx, s.alice)
	s.ErrorIs(err, domain.ErrDecryption)

	entry := s.hook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(logrus.ErrorLevel, entry.Level)
	s.Equal(audit.EventDrawDecryptFailure, entry.Data["event"])
	s.Equal(view.ID, entry.Data["draw_id"])
}
