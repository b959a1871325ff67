package access

import (
	"testing"

	"lottery_system/internal/audit"
	"lottery_system/internal/domain"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	anon := Session{SourceAddr: "10.0.0.1"}
	user := Session{Authenticated: true, UserID: 2, Email: "u@example.com", Role: domain.RoleUser}
	admin := Session{Authenticated: true, UserID: 1, Email: "a@example.com", Role: domain.RoleAdmin}
	bogus := Session{Authenticated: true, UserID: 3, Role: "root"}

	tests := []struct {
		name    string
		session Session
		allowed []string
		want    Decision
	}{
		{"anonymous on anonymous route", anon, []string{RoleAnonymous}, Proceed},
		{"anonymous on user route", anon, []string{domain.RoleUser}, AuthRequired},
		{"anonymous on admin route", anon, []string{domain.RoleAdmin}, AuthRequired},
		{"user on user route", user, []string{domain.RoleUser}, Proceed},
		{"user on admin route", user, []string{domain.RoleAdmin}, Forbidden},
		{"admin on user route", admin, []string{domain.RoleUser}, Forbidden},
		{"admin on shared route", admin, []string{domain.RoleUser, domain.RoleAdmin}, Proceed},
		{"user on anonymous-only route", user, []string{RoleAnonymous}, Forbidden},
		{"unknown role", bogus, []string{domain.RoleUser, domain.RoleAdmin, "root"}, Forbidden},
		{"empty allowed set, anonymous", anon, nil, AuthRequired},
		{"empty allowed set, admin", admin, nil, Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.session, tt.allowed...))
		})
	}
}

func TestGuardCheck_AuditsForbidden(t *testing.T) {
	l, hook := test.NewNullLogger()
	g := NewGuard(audit.New(l))

	user := Session{Authenticated: true, UserID: 7, Email: "u@example.com", Role: domain.RoleUser, SourceAddr: "192.0.2.9"}
	got := g.Check(user, "run_lottery", domain.RoleAdmin)
	assert.Equal(t, Forbidden, got)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, audit.EventUnauthorizedAccess, entry.Data["event"])
	assert.Equal(t, uint(7), entry.Data["user_id"])
	assert.Equal(t, "u@example.com", entry.Data["email"])
	assert.Equal(t, domain.RoleUser, entry.Data["role"])
	assert.Equal(t, "192.0.2.9", entry.Data["ip"])
}

func TestGuardCheck_NoAuditOtherwise(t *testing.T) {
	l, hook := test.NewNullLogger()
	g := NewGuard(audit.New(l))

	assert.Equal(t, AuthRequired, g.Check(Session{}, "submit_draw", domain.RoleUser))
	assert.Equal(t, Proceed, g.Check(Session{}, "login", RoleAnonymous))
	assert.Empty(t, hook.AllEntries())
}
