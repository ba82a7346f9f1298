package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
)

type RideRepo struct {
	s *Storage
}

func (r *RideRepo) CreateRide(ctx context.Context, ride models.Ride) (models.Ride, error) {
	err := r.s.with(func(st *state) error {
		if _, ok := st.accounts[ride.RiderID]; !ok {
			return apperrors.ErrAccountNotFound
		}
		if _, ok := st.rides[ride.ID]; ok {
			return apperrors.ErrRideAlreadyTaken
		}

		ride.Version = 1
		st.rides[ride.ID] = ride
		return nil
	})

	return ride, err
}

func (r *RideRepo) GetRide(ctx context.Context, rideID uuid.UUID, lock bool) (models.Ride, error) {
	var ride models.Ride
	err := r.s.with(func(st *state) error {
		var ok bool
		if ride, ok = st.rides[rideID]; !ok {
			return apperrors.ErrRideNotFound
		}
		return nil
	})

	return ride, err
}

func (r *RideRepo) UpdateRide(ctx context.Context, ride models.Ride) (models.Ride, error) {
	err := r.s.with(func(st *state) error {
		stored, ok := st.rides[ride.ID]
		if !ok {
			return apperrors.ErrRideNotFound
		}
		if stored.Version != ride.Version {
			return apperrors.ErrRideVersionMismatch
		}

		ride.Version++
		st.rides[ride.ID] = ride
		return nil
	})

	return ride, err
}

func (r *RideRepo) ListRides(ctx context.Context, opts repository.ListRidesOpts) ([]models.Ride, error) {
	var rides []models.Ride
	err := r.s.with(func(st *state) error {
		for _, ride := range st.rides {
			if matchRide(ride, opts) {
				rides = append(rides, ride)
			}
		}
		return nil
	})

	slices.SortFunc(rides, func(a, b models.Ride) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	if opts.Limit > 0 && len(rides) > opts.Limit {
		rides = rides[:opts.Limit]
	}

	return rides, err
}

func matchRide(ride models.Ride, opts repository.ListRidesOpts) bool {
	if len(opts.Statuses) > 0 && !slices.Contains(opts.Statuses, ride.Status) {
		return false
	}
	if opts.RiderID != nil && ride.RiderID != *opts.RiderID {
		return false
	}
	if opts.DriverID != nil && !ride.IsBoundDriver(*opts.DriverID) {
		return false
	}
	return true
}
