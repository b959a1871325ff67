// Package audit writes the security event trail.
package audit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event tags written to the trail
const (
	EventRegister           = "REGISTER"
	EventLoginSuccess       = "LOGIN_SUCCESS"
	EventLoginFailure       = "LOGIN_FAILURE"
	EventLockoutReset       = "LOCKOUT_RESET"
	EventLogout             = "LOGOUT"
	EventPasswordChanged    = "PASSWORD_CHANGED"
	EventUnauthorizedAccess = "UNAUTHORIZED_ACCESS"
	EventDrawDecryptFailure = "DRAW_DECRYPT_FAILURE"
)

// Logger appends JSON lines with a timestamp, an event tag and the event's fields
type Logger struct {
	log  *logrus.Logger // Underlying structured logger
	path string         // Backing file, empty when not file based

	mu   sync.Mutex
	file *os.File
}

// Open appends to the audit file at path, creating it if needed
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	l := newLogrus(f)
	return &Logger{log: l, path: path, file: f}, nil
}

// New wraps an existing logrus logger. The resulting Logger cannot Tail.
func New(l *logrus.Logger) *Logger {
	return &Logger{log: l}
}

// Discard returns a Logger that drops every event
func Discard() *Logger {
	return New(newLogrus(io.Discard))
}

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Record appends an informational event. Write failures are reported by logrus
// on stderr and never reach the caller.
func (a *Logger) Record(event string, fields logrus.Fields) {
	a.entry(event, fields).Info(event)
}

// Alert appends an event that needs attention (integrity failures)
func (a *Logger) Alert(event string, fields logrus.Fields) {
	a.entry(event, fields).Error(event)
}

func (a *Logger) entry(event string, fields logrus.Fields) *logrus.Entry {
	return a.log.WithFields(fields).WithField("event", event)
}

// Tail returns the last n lines of the trail, newest first
func (a *Logger) Tail(n int) ([]string, error) {
	if a.path == "" {
		return nil, errors.New("audit log is not file backed")
	}
	if n <= 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	out := make([]string, len(ring))
	for i, line := range ring {
		out[len(ring)-1-i] = line
	}
	return out, nil
}

// Close releases the backing file
func (a *Logger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
