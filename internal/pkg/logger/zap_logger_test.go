package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.log")
	l := NewIsolatedLogger(path)

	l.Info("Workflow", "node finished", map[string]interface{}{"node": "execute_query"})
	l.Debug("Workflow", "below file level", nil)
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "node finished", entry["message"])
	assert.Equal(t, "Workflow", entry["module"])
	assert.Equal(t, "execute_query", entry["details"].(map[string]interface{})["node"])
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Error("X", "boom", map[string]interface{}{"error": "e"})
		_ = l.Sync()
	})
}
