package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
)

type RideRepo struct {
	DB DBTX
}

const rideColumns = `id, rider_id, driver_id, pickup, dropoff, fare, status, started_at, ended_at, refund, cancelled_by, driver_flagged, created_at, updated_at, version`

const createRide = `-- name: CreateRide
INSERT INTO rides (id, rider_id, driver_id, pickup, dropoff, fare, status, started_at, ended_at, refund, cancelled_by, driver_flagged, created_at, updated_at, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
RETURNING ` + rideColumns

func (r *RideRepo) CreateRide(ctx context.Context, ride models.Ride) (models.Ride, error) {
	rows, _ := r.DB.Query(ctx, createRide,
		ride.ID, ride.RiderID, ride.DriverID, ride.Pickup, ride.Dropoff, ride.Fare, ride.Status,
		ride.StartedAt, ride.EndedAt, ride.Refund, ride.CancelledBy, ride.DriverFlagged, ride.CreatedAt, ride.UpdatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToRide)

	switch {
	case err == nil:
		return created, nil
	case isForeignKeyViolation(err):
		return created, apperrors.ErrAccountNotFound
	case isCheckViolation(err, ""):
		return created, fmt.Errorf("ride violates constraints: %w", apperrors.ErrInvalidInput)
	default:
		return created, dbError(err)
	}
}

const getRide = `-- name: GetRide
SELECT ` + rideColumns + ` FROM rides
WHERE id = $1
`

func (r *RideRepo) GetRide(ctx context.Context, rideID uuid.UUID, lock bool) (models.Ride, error) {
	query := getRide
	if lock {
		query += " FOR UPDATE"
	}

	rows, _ := r.DB.Query(ctx, query, rideID)
	ride, err := pgx.CollectOneRow(rows, rowToRide)

	switch {
	case err == nil:
		return ride, nil
	case errors.Is(err, pgx.ErrNoRows):
		return ride, apperrors.ErrRideNotFound
	default:
		return ride, dbError(err)
	}
}

const updateRide = `-- name: UpdateRide
UPDATE rides
SET driver_id = $3, status = $4, started_at = $5, ended_at = $6, refund = $7, cancelled_by = $8, driver_flagged = $9, updated_at = $10, version = version + 1
WHERE id = $1 AND version = $2
RETURNING ` + rideColumns

func (r *RideRepo) UpdateRide(ctx context.Context, ride models.Ride) (models.Ride, error) {
	rows, _ := r.DB.Query(ctx, updateRide,
		ride.ID, ride.Version,
		ride.DriverID, ride.Status, ride.StartedAt, ride.EndedAt, ride.Refund, ride.CancelledBy, ride.DriverFlagged, ride.UpdatedAt,
	)
	updated, err := pgx.CollectOneRow(rows, rowToRide)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := r.GetRide(ctx, ride.ID, false); err != nil {
			return updated, err
		}
		return updated, apperrors.ErrRideVersionMismatch
	case isCheckViolation(err, ""):
		return updated, fmt.Errorf("ride violates constraints: %w", apperrors.ErrInvalidState)
	default:
		return updated, dbError(err)
	}
}

func (r *RideRepo) ListRides(ctx context.Context, opts repository.ListRidesOpts) ([]models.Ride, error) {
	var (
		where []string
		args  []any
	)

	if len(opts.Statuses) > 0 {
		statuses := make([]string, 0, len(opts.Statuses))
		for _, s := range opts.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if opts.RiderID != nil {
		args = append(args, *opts.RiderID)
		where = append(where, fmt.Sprintf("rider_id = $%d", len(args)))
	}
	if opts.DriverID != nil {
		args = append(args, *opts.DriverID)
		where = append(where, fmt.Sprintf("driver_id = $%d", len(args)))
	}

	query := "SELECT " + rideColumns + " FROM rides"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, _ := r.DB.Query(ctx, query, args...)
	rides, err := pgx.CollectRows(rows, rowToRide)
	if err != nil {
		return nil, dbError(err)
	}

	return rides, nil
}

func rowToRide(row pgx.CollectableRow) (models.Ride, error) {
	var r models.Ride
	err := row.Scan(
		&r.ID, &r.RiderID, &r.DriverID, &r.Pickup, &r.Dropoff, &r.Fare, &r.Status,
		&r.StartedAt, &r.EndedAt, &r.Refund, &r.CancelledBy, &r.DriverFlagged,
		&r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	return r, err
}
