package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// captureOutput redirects logger output to a buffer and restores the
// previous output, level and format on cleanup.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	origOutput, origColor := output, useColor
	output, useColor = buf, false
	mu.Unlock()
	origLevel := currentLevel.Load()
	origFormat := currentFormat.Load()
	reconfigure()

	t.Cleanup(func() {
		mu.Lock()
		output, useColor = origOutput, origColor
		mu.Unlock()
		currentLevel.Store(origLevel)
		currentFormat.Store(origFormat)
		reconfigure()
	})
	return buf
}

func decodeJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry), buf.String())
	return entry
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	cases := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"DEBUG", []string{"debug msg", "info msg", "warn msg", "error msg"}, nil},
		{"INFO", []string{"info msg", "warn msg", "error msg"}, []string{"debug msg"}},
		{"WARN", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"ERROR", []string{"error msg"}, []string{"debug msg", "info msg", "warn msg"}},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			buf := captureOutput(t)
			SetLevel(tc.level)

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")

			out := buf.String()
			for _, s := range tc.visible {
				assert.Contains(t, out, s)
			}
			for _, s := range tc.hidden {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	t.Run("CaseInsensitive", func(t *testing.T) {
		captureOutput(t)
		SetLevel("debug")
		assert.Equal(t, LevelDebug, GetLevel())
		SetLevel("Warning")
		assert.Equal(t, LevelWarn, GetLevel())
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		captureOutput(t)
		SetLevel("ERROR")
		SetLevel("LOUD")
		assert.Equal(t, LevelError, GetLevel())
	})
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

// ============================================================================
// Text Handler Tests
// ============================================================================

func TestTextFormat(t *testing.T) {
	t.Run("WritesKeyValuePairs", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")
		SetFormat("text")

		Info("library registered", KeyLibrary, "weapons", KeyItems, 12)

		out := buf.String()
		assert.Contains(t, out, "[INFO] library registered")
		assert.Contains(t, out, "library=weapons")
		assert.Contains(t, out, "items=12")
	})

	t.Run("QuotesStringsWithSpaces", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")
		SetFormat("text")

		Info("msg", "reason", "no such item")
		assert.Contains(t, buf.String(), `reason="no such item"`)
	})

	t.Run("GroupsAndBoundAttrs", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")
		SetFormat("text")

		With(KeyLibrary, "armor").WithGroup("window").Info("target", "start", 3)

		out := buf.String()
		assert.Contains(t, out, "library=armor")
		assert.Contains(t, out, "window.start=3")
	})

	t.Run("SkipsEmptyAttrs", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")
		SetFormat("text")

		Info("ok", Err(nil))
		assert.NotContains(t, buf.String(), "error=")
	})
}

// ============================================================================
// JSON Format Tests
// ============================================================================

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("json")

	Info("test message", "key1", "value1", "key2", 42)

	entry := decodeJSONLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value1", entry["key1"])
	assert.Equal(t, float64(42), entry["key2"])
	assert.Contains(t, entry, "time")
}

func TestFormatSwitching(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")

	SetFormat("text")
	Info("text message")
	textOutput := buf.String()
	buf.Reset()

	SetFormat("xml") // ignored
	SetFormat("json")
	Info("json message")

	assert.Contains(t, textOutput, "[INFO]")
	assert.True(t, json.Valid([]byte(strings.TrimSpace(buf.String()))))
}

// ============================================================================
// Context Logging Tests
// ============================================================================

func TestContextLogging(t *testing.T) {
	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")
		SetFormat("json")

		lc := NewLogContext("weapons", "filter_sort").WithVersion(7).WithTrace("abc123", "xyz789")
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "committed", "extra_field", "value")

		entry := decodeJSONLine(t, buf)
		assert.Equal(t, "abc123", entry[KeyTraceID])
		assert.Equal(t, "xyz789", entry[KeySpanID])
		assert.Equal(t, "weapons", entry[KeyLibrary])
		assert.Equal(t, "filter_sort", entry[KeyOperation])
		assert.Equal(t, float64(7), entry[KeyVersion])
		assert.Equal(t, "value", entry["extra_field"])
	})

	t.Run("ContextWithoutLogContext", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")

		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "plain message")
		})
		assert.Contains(t, buf.String(), "plain message")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext("weapons", "buffer")
		clone := lc.WithVersion(3)

		assert.Equal(t, uint64(3), clone.Version)
		assert.Equal(t, uint64(0), lc.Version)
		assert.Equal(t, "weapons", clone.Library)
	})

	t.Run("NilSafe", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithVersion(1))
		assert.Zero(t, lc.DurationMs())
		assert.Nil(t, FromContext(context.Background()))
	})
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, KeyLibrary, Library("x").Key)
	assert.Equal(t, uint64(9), Version(9).Value.Uint64())
	assert.Equal(t, KeyPriority, Priority("high").Key)
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, assert.AnError.Error(), Err(assert.AnError).Value.String())
}

// ============================================================================
// Init Tests
// ============================================================================

func TestInit(t *testing.T) {
	t.Run("FileOutput", func(t *testing.T) {
		captureOutput(t)
		path := filepath.Join(t.TempDir(), "assetstream.log")

		require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
		Info("written to file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to file")

		require.NoError(t, Init(Config{Output: "stderr"}))
	})

	t.Run("BadPath", func(t *testing.T) {
		captureOutput(t)
		err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
		assert.Error(t, err)
	})
}

func TestConcurrentLogging(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("text")

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 50 {
				Info("concurrent", KeyWorkerID, id)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 16*50)
}
