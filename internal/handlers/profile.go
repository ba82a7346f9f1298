package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
)

type vehicleBody struct {
	LicenseNumber string             `json:"license_number" validate:"required,notblank,max=64"`
	Type          models.VehicleType `json:"type" validate:"required,oneof=car bike auto"`
	Number        string             `json:"number" validate:"required,notblank,max=32"`
}

type profileResponse struct {
	ID        uuid.UUID    `json:"id"`
	Username  string       `json:"username"`
	Role      models.Role  `json:"role"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Vehicle   *vehicleBody `json:"vehicle,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func newProfileResponse(a models.Account) profileResponse {
	res := profileResponse{
		ID:        a.ID,
		Username:  a.Username,
		Role:      a.Role,
		Name:      a.Profile.Name,
		Email:     a.Profile.Email,
		Phone:     a.Profile.Phone,
		CreatedAt: a.CreatedAt,
	}
	if v := a.Profile.Vehicle; v != nil {
		res.Vehicle = &vehicleBody{LicenseNumber: v.LicenseNumber, Type: v.Type, Number: v.Number}
	}
	return res
}

func handleProfile(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		account, err := accountService.GetAccount(r.Context(), p)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newProfileResponse(account))
	})
}

// Whole profile is replaced, vehicle is expected from drivers only
func handleUpdateProfile(accountService accountService, l logger.Logger) http.Handler {
	type request struct {
		Name    string       `json:"name" validate:"required,notblank,max=100"`
		Email   string       `json:"email" validate:"required,email,max=255"`
		Phone   string       `json:"phone" validate:"omitempty,max=32"`
		Vehicle *vehicleBody `json:"vehicle"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		profile := models.Profile{Name: data.Name, Email: data.Email, Phone: data.Phone}
		if v := data.Vehicle; v != nil {
			profile.Vehicle = &models.Vehicle{LicenseNumber: v.LicenseNumber, Type: v.Type, Number: v.Number}
		}

		account, err := accountService.UpdateProfile(r.Context(), p, profile)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newProfileResponse(account))
	})
}
