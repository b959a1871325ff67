package audit

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_AddsEventTag(t *testing.T) {
	l, hook := test.NewNullLogger()
	a := New(l)

	a.Record(EventLoginFailure, logrus.Fields{"email": "bob@example.com", "ip": "10.0.0.1"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, EventLoginFailure, entry.Data["event"])
	assert.Equal(t, "bob@example.com", entry.Data["email"])
	assert.Equal(t, "10.0.0.1", entry.Data["ip"])
}

func TestAlert_LogsAtErrorLevel(t *testing.T) {
	l, hook := test.NewNullLogger()
	a := New(l)

	a.Alert(EventDrawDecryptFailure, logrus.Fields{"draw_id": uint(4)})

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestOpenAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lottery.log")
	a, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	for i := 0; i < 12; i++ {
		a.Record(EventLoginSuccess, logrus.Fields{"seq": i})
	}

	lines, err := a.Tail(10)
	require.NoError(t, err)
	require.Len(t, lines, 10)

	var newest, oldest map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &newest))
	require.NoError(t, json.Unmarshal([]byte(lines[9]), &oldest))
	assert.EqualValues(t, 11, newest["seq"])
	assert.EqualValues(t, 2, oldest["seq"])
	assert.Equal(t, EventLoginSuccess, newest["event"])
	assert.NotEmpty(t, newest["time"])

	none, err := a.Tail(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTail_RequiresFile(t *testing.T) {
	_, err := Discard().Tail(10)
	assert.Error(t, err)
}
