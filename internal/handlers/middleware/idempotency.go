package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/nkiryanov/ridehail/internal/handlers/authctx"
	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/idempotency"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	// Key is reused for a request with another body
	KeyReusedErrorType = "idempotency_key_reused"

	maxIdempotencyKeyLen = 255
)

type idempotencyStore interface {
	Get(ctx context.Context, key string) (idempotency.Response, bool, error)
	Lock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
	Save(ctx context.Context, key string, resp idempotency.Response) error
}

// recordWriter passes response through and keeps a copy of it
type recordWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *recordWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// IdempotencyMiddleware replays the stored response for a retried POST or PUT with the same Idempotency-Key
// Has to be placed after AuthMiddleware: keys are scoped by principal
func IdempotencyMiddleware(store idempotencyStore, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(IdempotencyKeyHeader)
			if header == "" || (r.Method != http.MethodPost && r.Method != http.MethodPut) {
				next.ServeHTTP(w, r)
				return
			}

			if len(header) > maxIdempotencyKeyLen {
				render.Error(w, render.ValidationErrorType, "Idempotency-Key is too long", http.StatusBadRequest)
				return
			}

			p, ok := authctx.FromContext(r.Context())
			if !ok {
				render.Error(w, render.UnauthenticatedErrorType, "Unauthorized", http.StatusUnauthorized)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, render.MaxBodySize))
			if err != nil {
				render.DecodeError(w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			requestHash := hex.EncodeToString(sum[:])

			key := strings.Join([]string{p.ID.String(), r.Method, r.URL.Path, header}, ":")
			unavailable := func(err error) {
				l.Error("idempotency store failed", "error", err, "principal_id", p.ID)
				w.Header().Set("Retry-After", "1")
				render.Error(w, "infrastructure", "Service temporarily unavailable", http.StatusServiceUnavailable)
			}

			// answered writes the stored response if there is one
			answered := func() bool {
				stored, found, err := store.Get(r.Context(), key)
				switch {
				case err != nil:
					unavailable(err)
				case !found:
					return false
				case stored.RequestHash != requestHash:
					render.Error(w, KeyReusedErrorType, "Idempotency-Key was used with another request body", http.StatusUnprocessableEntity)
				default:
					replay(w, stored)
				}
				return true
			}

			if answered() {
				return
			}

			locked, err := store.Lock(r.Context(), key)
			if err != nil {
				unavailable(err)
				return
			}
			if !locked {
				render.Error(w, "conflict", "Request with the Idempotency-Key is in progress", http.StatusConflict)
				return
			}

			// The request may be gone when the handler is done, the key must be released anyway
			ctx := context.WithoutCancel(r.Context())
			defer func() {
				if err := store.Unlock(ctx, key); err != nil {
					l.Error("idempotency key unlock failed", "error", err, "principal_id", p.ID)
				}
			}()

			// The request holding the key before may have finished between Get and Lock
			if answered() {
				return
			}

			rw := &recordWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			// Server errors are worth to retry, so they are not stored
			if rw.status >= http.StatusInternalServerError {
				return
			}

			resp := idempotency.Response{
				Status:      rw.status,
				ContentType: rw.Header().Get("Content-Type"),
				Body:        rw.body.Bytes(),
				RequestHash: requestHash,
			}
			if err := store.Save(ctx, key, resp); err != nil {
				l.Error("idempotency response save failed", "error", err, "principal_id", p.ID)
			}
		})
	}
}

func replay(w http.ResponseWriter, resp idempotency.Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
