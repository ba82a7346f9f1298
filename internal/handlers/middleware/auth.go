package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/ridehail/internal/handlers/authctx"
	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.Principal, error)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := as.Auth(r.Context(), r)
			if err != nil {
				render.Error(w, render.UnauthenticatedErrorType, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := authctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
