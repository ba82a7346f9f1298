package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
)

type authResponse struct {
	Message string `json:"message"`
}

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"required,oneof=rider driver"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := authService.Register(r.Context(), data.Login, data.Password, models.Role(data.Role))
		switch {
		case err == nil:
			authService.SetToken(w, token)
			render.JSON(w, authResponse{Message: "Account registered successfully"})
		case errors.Is(err, apperrors.ErrAccountAlreadyExists):
			render.Error(w, string(apperrors.KindConflict), "Account already exists", http.StatusConflict)
		default:
			renderError(w, r, l, err)
		}
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := authService.Login(r.Context(), data.Login, data.Password)
		switch {
		case err == nil:
			authService.SetToken(w, token)
			render.JSON(w, authResponse{Message: "Logged in successfully"})
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Error(w, render.UnauthenticatedErrorType, "Invalid login or password", http.StatusUnauthorized)
		default:
			renderError(w, r, l, err)
		}
	})
}
