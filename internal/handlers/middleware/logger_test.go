package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level string
	msg   string
	args  map[string]any
}

// logRecorder collects log calls as entries with args folded into a map
type logRecorder struct {
	entries []logEntry
}

func (l *logRecorder) add(level, msg string, args []any) {
	m := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		m[args[i].(string)] = args[i+1]
	}
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: m})
}

func (l *logRecorder) Info(msg string, args ...any)  { l.add("INFO", msg, args) }
func (l *logRecorder) Error(msg string, args ...any) { l.add("ERROR", msg, args) }

func TestLoggerMiddleware(t *testing.T) {
	serve := func(t *testing.T, status int, body string, header string) (*httptest.ResponseRecorder, *logRecorder) {
		t.Helper()

		l := &logRecorder{}
		h := LoggerMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, err := w.Write([]byte(body))
			require.NoError(t, err)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/rides/42/accept", nil)
		if header != "" {
			req.Header.Set(RequestIDHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Len(t, l.entries, 1, "one line per request expected")
		return rec, l
	}

	t.Run("logs request", func(t *testing.T) {
		rec, l := serve(t, http.StatusTeapot, "hi", "")

		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, "hi", rec.Body.String())

		entry := l.entries[0]
		require.Equal(t, "INFO", entry.level)
		require.Equal(t, "request served", entry.msg)
		require.Equal(t, http.MethodPost, entry.args["method"])
		require.Equal(t, "/api/rides/42/accept", entry.args["uri"])
		require.Equal(t, http.StatusTeapot, entry.args["status"])
		require.Equal(t, 2, entry.args["size"], "size should be length of 'hi'")
		require.Contains(t, entry.args, "duration")
	})

	t.Run("generates request id", func(t *testing.T) {
		rec, l := serve(t, http.StatusOK, "", "")

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err, "generated id has to be uuid, got %q", id)
		require.Equal(t, id, l.entries[0].args["request_id"])
	})

	t.Run("keeps client request id", func(t *testing.T) {
		rec, l := serve(t, http.StatusOK, "", "trace-abc")

		require.Equal(t, "trace-abc", rec.Header().Get(RequestIDHeader))
		require.Equal(t, "trace-abc", l.entries[0].args["request_id"])
	})

	t.Run("replaces too long request id", func(t *testing.T) {
		long := strings.Repeat("x", maxRequestIDLen+1)

		rec, _ := serve(t, http.StatusOK, "", long)

		require.NotEqual(t, long, rec.Header().Get(RequestIDHeader))
	})

	t.Run("server error logged as error", func(t *testing.T) {
		_, l := serve(t, http.StatusServiceUnavailable, "", "")

		require.Equal(t, "ERROR", l.entries[0].level)
		require.Equal(t, http.StatusServiceUnavailable, l.entries[0].args["status"])
	})
}
