package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type errorLoggerFunc func(string, ...any)

func (f errorLoggerFunc) Error(msg string, v ...any) { f(msg, v...) }

func TestRecoveryMiddleware(t *testing.T) {
	var logged string
	l := errorLoggerFunc(func(msg string, _ ...any) { logged = msg })

	h := RecoveryMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error": "unknown", "message": "Internal server error"}`, w.Body.String())
	require.Equal(t, "panic recovered", logged)
}
