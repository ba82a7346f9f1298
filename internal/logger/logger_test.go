package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, env string, level string) (Logger, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	l, err := NewWithWriter(buf, env, level)
	require.NoError(t, err)
	return l, buf
}

func TestLogger_parseLevel(t *testing.T) {
	t.Run("valid value", func(t *testing.T) {
		tests := []struct {
			input    string
			expected slog.Level
		}{
			{"DEBUG", slog.LevelDebug},
			{"debug", slog.LevelDebug},
			{"Info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"ERROR", slog.LevelError},
		}

		for _, tt := range tests {
			t.Run(tt.input, func(t *testing.T) {
				got, err := parseLevel(tt.input)

				require.NoError(t, err, "parseLevel(%q) should not return an error", tt.input)
				require.Equal(t, tt.expected, got)
			})
		}
	})

	t.Run("not valid", func(t *testing.T) {
		for _, value := range []string{"", "uknown", "warning"} {
			_, err := parseLevel(value)
			require.Error(t, err, "level %q must be rejected", value)
		}
	})
}

func TestLogger_New(t *testing.T) {
	t.Run("writes to stderr only", func(t *testing.T) {
		origOut, origErr := os.Stdout, os.Stderr
		defer func() { os.Stdout, os.Stderr = origOut, origErr }()

		rOut, wOut, err := os.Pipe()
		require.NoError(t, err)
		rErr, wErr, err := os.Pipe()
		require.NoError(t, err)
		os.Stdout, os.Stderr = wOut, wErr

		l, err := New(EnvDevelopment, LevelInfo)
		require.NoError(t, err)
		l.Info("ride accepted", "ride_id", "42")

		require.NoError(t, wOut.Close())
		require.NoError(t, wErr.Close())
		stdout, err := io.ReadAll(rOut)
		require.NoError(t, err)
		stderr, err := io.ReadAll(rErr)
		require.NoError(t, err)

		require.Empty(t, stdout)
		require.Contains(t, string(stderr), "ride_id=42")
	})

	t.Run("production is json", func(t *testing.T) {
		l, buf := newBufferLogger(t, EnvProduction, LevelInfo)

		l.Info("ride accepted", "ride_id", "42")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "JSON log should be valid")
		require.Equal(t, "ride accepted", entry["msg"])
		require.Equal(t, "INFO", entry["level"])
		require.Equal(t, "42", entry["ride_id"])

		source, ok := entry["source"].(map[string]any)
		require.True(t, ok, "source has to be added")
		require.Equal(t, "logger_test.go", source["file"], "source file has to be trimmed and point to the caller")
	})

	t.Run("development is text", func(t *testing.T) {
		l, buf := newBufferLogger(t, EnvDevelopment, LevelInfo)

		l.Info("ride accepted", "ride_id", "42")

		require.Contains(t, buf.String(), "level=INFO")
		require.Contains(t, buf.String(), "ride_id=42")
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := New("staging", LevelInfo)
		require.Error(t, err)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := New(EnvProduction, "verbose")
		require.Error(t, err)
	})
}

func TestLogger_NewNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()

	require.NotPanics(t, func() {
		l.Debug("debug message")
		l.With("ride_id", "42").Info("info message")
		l.WithGroup("ride").Error("error message")
	})
}

func TestLogger_Levels(t *testing.T) {
	log := map[string]func(Logger){
		LevelDebug: func(l Logger) { l.Debug("test") },
		LevelInfo:  func(l Logger) { l.Info("test") },
		LevelWarn:  func(l Logger) { l.Warn("test") },
		LevelError: func(l Logger) { l.Error("test") },
	}
	order := []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

	for i, level := range order {
		for j, msgLevel := range order {
			t.Run(level+" logger "+msgLevel+" message", func(t *testing.T) {
				l, buf := newBufferLogger(t, EnvDevelopment, level)

				log[msgLevel](l)

				require.Equal(t, j >= i, buf.Len() > 0, "message of level %s on logger of level %s", msgLevel, level)
			})
		}
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(t, EnvDevelopment, LevelInfo)

	l.With("component", "ride").WithGroup("ride").Info("accepted", "id", "42")

	require.Contains(t, buf.String(), "component=ride")
	require.Contains(t, buf.String(), "ride.id=42")
}

func TestLogger_Redaction(t *testing.T) {
	l, buf := newBufferLogger(t, EnvProduction, LevelInfo)

	l.Info("login", "username", "nk", "password", "StrongEnoughPassword", "Authorization", "Bearer abc")

	require.NotContains(t, buf.String(), "StrongEnoughPassword")
	require.NotContains(t, buf.String(), "Bearer abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "nk", entry["username"])
	require.Equal(t, redacted, entry["password"])
	require.Equal(t, redacted, strings.TrimSpace(entry["Authorization"].(string)))
}
