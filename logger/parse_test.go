package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("W"))
	assert.Equal(t, ErrorLevel, ParseLevel("crit"))
	assert.Equal(t, OffLevel, ParseLevel("none"))
	assert.Equal(t, DefaultLevel, ParseLevel("bogus"))

	for _, lv := range []Level{TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, PanicLevel, OffLevel} {
		assert.True(t, IsLevelString(GetLevelString(lv)))
		assert.Equal(t, lv, ParseLevel(GetLevelString(lv)))
	}
}

func TestUeLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	defer SetLevel(GetLevel())
	SetLevel(OffLevel)
	ul := NewUeLogger(dir, 3, 7, true)
	ul.Debugf("measured %d cells", 12)
	ul.DisplayPendingLogEntries(200000)
	ul.Close()

	data, err := os.ReadFile(filepath.Join(dir, "3_ue7.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Contains(t, lines[len(lines)-1], "200000 measured 12 cells")
}

func TestUeLoggerFollowsGlobalLevel(t *testing.T) {
	defer SetLevel(GetLevel())
	SetLevel(InfoLevel)
	ul := NewUeLogger(t.TempDir(), 1, 2, false)

	ul.Debugf("hidden")
	assert.Len(t, ul.entries, 0)

	SetLevel(DebugLevel)
	ul.Debugf("shown after level change")
	assert.Len(t, ul.entries, 1)
	ul.DisplayPendingLogEntries(1000)
	assert.Len(t, ul.entries, 0)
}
