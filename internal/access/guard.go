// Package access decides whether a session may run a protected operation.
package access

import (
	"slices"

	"lottery_system/internal/audit"
	"lottery_system/internal/domain"

	"github.com/sirupsen/logrus"
)

// RoleAnonymous is the capability held by requests without an authenticated session
const RoleAnonymous = "anonymous"

// Session is the authentication state of the caller
type Session struct {
	Authenticated bool   // Caller presented a valid session token
	UserID        uint   // Authenticated user ID
	Email         string // Authenticated user email
	Role          string // domain.RoleUser or domain.RoleAdmin when authenticated
	SourceAddr    string // Client address
	SessionID     string // Anonymous session identifier, present before and after login
}

// Decision is the outcome of an access check
type Decision int

const (
	Proceed      Decision = iota // Operation may run
	AuthRequired                 // Caller must log in first
	Forbidden                    // Caller is logged in but lacks the role
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case AuthRequired:
		return "authentication required"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decide evaluates a session against the roles an operation allows.
// An empty allowed set denies everyone.
func Decide(s Session, allowed ...string) Decision {
	if !s.Authenticated {
		if slices.Contains(allowed, RoleAnonymous) {
			return Proceed
		}
		return AuthRequired
	}
	if s.Role != domain.RoleUser && s.Role != domain.RoleAdmin {
		return Forbidden
	}
	if slices.Contains(allowed, s.Role) {
		return Proceed
	}
	return Forbidden
}

// Guard is Decide plus the security trail for forbidden attempts
type Guard struct {
	audit *audit.Logger
}

// NewGuard returns a Guard writing to a
func NewGuard(a *audit.Logger) *Guard {
	return &Guard{audit: a}
}

// Check decides and records an UNAUTHORIZED_ACCESS event when an authenticated
// caller is refused.
func (g *Guard) Check(s Session, operation string, allowed ...string) Decision {
	d := Decide(s, allowed...)
	if d == Forbidden {
		g.audit.Record(audit.EventUnauthorizedAccess, logrus.Fields{
			"user_id":   s.UserID,
			"email":     s.Email,
			"role":      s.Role,
			"ip":        s.SourceAddr,
			"operation": operation,
		})
	}
	return d
}
