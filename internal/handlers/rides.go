package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
)

type rideResponse struct {
	ID            uuid.UUID         `json:"id"`
	RiderID       uuid.UUID         `json:"rider_id"`
	DriverID      *uuid.UUID        `json:"driver_id"`
	Pickup        string            `json:"pickup"`
	Dropoff       string            `json:"dropoff"`
	Fare          decimal.Decimal   `json:"fare"`
	Status        models.RideStatus `json:"status"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	EndedAt       *time.Time        `json:"ended_at,omitempty"`
	Refund        *decimal.Decimal  `json:"refund,omitempty"`
	CancelledBy   *models.Role      `json:"cancelled_by,omitempty"`
	DriverFlagged bool              `json:"driver_flagged"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func newRideResponse(ride models.Ride) rideResponse {
	return rideResponse{
		ID:            ride.ID,
		RiderID:       ride.RiderID,
		DriverID:      ride.DriverID,
		Pickup:        ride.Pickup,
		Dropoff:       ride.Dropoff,
		Fare:          ride.Fare,
		Status:        ride.Status,
		StartedAt:     ride.StartedAt,
		EndedAt:       ride.EndedAt,
		Refund:        ride.Refund,
		CancelledBy:   ride.CancelledBy,
		DriverFlagged: ride.DriverFlagged,
		CreatedAt:     ride.CreatedAt,
		UpdatedAt:     ride.UpdatedAt,
	}
}

func newRideListResponse(rides []models.Ride) []rideResponse {
	res := make([]rideResponse, 0, len(rides))
	for _, ride := range rides {
		res = append(res, newRideResponse(ride))
	}
	return res
}

// Ride id from the path, renders 400 if it is malformed
func rideID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("rideID"))
	if err != nil {
		render.Error(w, string(apperrors.KindInvalidInput), "Invalid ride id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func handleRequestRide(rideService rideService, l logger.Logger) http.Handler {
	type request struct {
		Pickup  string           `json:"pickup" validate:"required,notblank,max=255"`
		Dropoff string           `json:"dropoff" validate:"required,notblank,max=255"`
		Fare    *decimal.Decimal `json:"fare" validate:"required"`
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

		ride, err := rideService.RequestRide(r.Context(), p, data.Pickup, data.Dropoff, *data.Fare)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSONWithStatus(w, newRideResponse(ride), http.StatusCreated)
	})
}

func handleListAvailableRides(rideService rideService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		rides, err := rideService.ListAvailableRides(r.Context(), p)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newRideListResponse(rides))
	})
}

func handleListMyRides(rideService rideService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		rides, err := rideService.ListMyRides(r.Context(), p)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newRideListResponse(rides))
	})
}

func handleGetRide(rideService rideService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := rideID(w, r)
		if !ok {
			return
		}

		ride, err := rideService.GetRide(r.Context(), p, id)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newRideResponse(ride))
	})
}

type rideAction func(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error)

// Accept, start and complete differ only by the service method
func handleRideAction(action rideAction, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := rideID(w, r)
		if !ok {
			return
		}

		ride, err := action(r.Context(), p, id)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newRideResponse(ride))
	})
}

func handleCancelRide(rideService rideService, l logger.Logger) http.Handler {
	type response struct {
		Ride           rideResponse      `json:"ride"`
		Status         models.RideStatus `json:"status"`
		Refund         decimal.Decimal   `json:"refund"`
		DriverFlagged  bool              `json:"driver_flagged"`
		DriverReleased bool              `json:"driver_released"`
		Outcome        string            `json:"outcome"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := rideID(w, r)
		if !ok {
			return
		}

		res, err := rideService.CancelRide(r.Context(), p, id)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, response{
			Ride:           newRideResponse(res.Ride),
			Status:         res.Ride.Status,
			Refund:         res.Refund,
			DriverFlagged:  res.DriverFlagged,
			DriverReleased: res.DriverReleased,
			Outcome:        res.Outcome,
		})
	})
}
