package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/domain"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
	"github.com/nkiryanov/ridehail/internal/service/ledger"
)

const defaultOperationTimeout = 5 * time.Second

type Config struct {
	// Every use-case has to finish in that time or fail as infrastructure error
	// If not set than default is used
	OperationTimeout time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

// CancelResult is what the cancelling party learns about the cancellation
type CancelResult struct {
	Ride           models.Ride
	Refund         decimal.Decimal
	DriverFlagged  bool
	DriverReleased bool
	Outcome        string
}

// RideService runs the ride lifecycle
// Every transition and its ledger effects are committed in one transaction with the ride row locked
type RideService struct {
	storage repository.Storage
	ledger  *ledger.Ledger
	logger  logger.Logger

	timeout time.Duration
	now     func() time.Time
}

func NewService(cfg Config, storage repository.Storage, l logger.Logger) *RideService {
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaultOperationTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &RideService{
		storage: storage,
		ledger:  ledger.New(cfg.Now),
		logger:  l.With("component", "ride"),
		timeout: cfg.OperationTimeout,
		now:     cfg.Now,
	}
}

// RequestRide creates a ride and escrows the fare from the rider wallet
func (s *RideService) RequestRide(ctx context.Context, p models.Principal, pickup string, dropoff string, fare decimal.Decimal) (models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tr, err := domain.Request(p, pickup, dropoff, fare, s.now())
	if err != nil {
		return models.Ride{}, s.fail(err, "ride request rejected", p, uuid.Nil)
	}

	var ride models.Ride
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		created, err := storage.Ride().CreateRide(ctx, tr.Ride)
		if err != nil {
			return err
		}

		if err := s.ledger.Apply(ctx, storage, created.ID, tr.Effects); err != nil {
			return err
		}

		ride = created
		return nil
	})
	if err != nil {
		return models.Ride{}, s.fail(ctxError(err), "ride request failed", p, tr.Ride.ID)
	}

	s.logger.Info("ride requested", "ride_id", ride.ID, "principal_id", p.ID, "fare", ride.Fare.StringFixed(2))
	return ride, nil
}

// ListAvailableRides returns rides waiting for a driver, newest first
func (s *RideService) ListAvailableRides(ctx context.Context, p models.Principal) ([]models.Ride, error) {
	if p.Role != models.RoleDriver {
		return nil, apperrors.ErrRoleNotAllowed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rides, err := s.storage.Ride().ListRides(ctx, repository.ListRidesOpts{
		Statuses: []models.RideStatus{models.RideRequested},
	})
	if err != nil {
		return nil, s.fail(ctxError(err), "list available rides failed", p, uuid.Nil)
	}

	return rides, nil
}

func (s *RideService) AcceptRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error) {
	tr, err := s.transition(ctx, p, rideID, domain.EventAccept)
	return tr.Ride, err
}

func (s *RideService) StartRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error) {
	tr, err := s.transition(ctx, p, rideID, domain.EventStart)
	return tr.Ride, err
}

// CompleteRide finishes the trip and pays the fare out to the driver
func (s *RideService) CompleteRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error) {
	tr, err := s.transition(ctx, p, rideID, domain.EventComplete)
	return tr.Ride, err
}

// CancelRide cancels the ride by its rider or driver and refunds the rider according to the cancellation policy
func (s *RideService) CancelRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (CancelResult, error) {
	tr, err := s.transition(ctx, p, rideID, domain.EventCancel)
	if err != nil {
		return CancelResult{}, err
	}

	result := CancelResult{
		Ride:           tr.Ride,
		Refund:         tr.Refund,
		DriverFlagged:  tr.Cancellation.DriverFlagged,
		DriverReleased: tr.Cancellation.DriverReleased,
		Outcome:        tr.Cancellation.Outcome,
	}

	if result.DriverFlagged {
		s.logger.Warn("driver flagged for review", "ride_id", rideID, "driver_id", p.ID)
	}

	return result, nil
}

// ListMyRides returns rides of the principal in its role, newest first
func (s *RideService) ListMyRides(ctx context.Context, p models.Principal) ([]models.Ride, error) {
	opts := repository.ListRidesOpts{}
	switch p.Role {
	case models.RoleRider:
		opts.RiderID = &p.ID
	case models.RoleDriver:
		opts.DriverID = &p.ID
	default:
		return nil, apperrors.ErrRoleNotAllowed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rides, err := s.storage.Ride().ListRides(ctx, opts)
	if err != nil {
		return nil, s.fail(ctxError(err), "list rides failed", p, uuid.Nil)
	}

	return rides, nil
}

// GetRide returns the ride to its parties
// Drivers may also look at rides still waiting for acceptance
func (s *RideService) GetRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ride, err := s.storage.Ride().GetRide(ctx, rideID, false)
	if err != nil {
		return models.Ride{}, s.fail(ctxError(err), "get ride failed", p, rideID)
	}

	if ride.IsParty(p) || (p.Role == models.RoleDriver && ride.Status == models.RideRequested) {
		return ride, nil
	}

	return models.Ride{}, apperrors.ErrNotRideParty
}

func (s *RideService) transition(ctx context.Context, p models.Principal, rideID uuid.UUID, event domain.Event) (domain.Transition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var tr domain.Transition
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		ride, err := storage.Ride().GetRide(ctx, rideID, true)
		if err != nil {
			return err
		}

		next, err := domain.Apply(ride, event, p, s.now())
		if err != nil {
			return err
		}

		updated, err := storage.Ride().UpdateRide(ctx, next.Ride)
		if err != nil {
			return err
		}

		if err := s.ledger.Apply(ctx, storage, updated.ID, next.Effects); err != nil {
			return err
		}

		next.Ride = updated
		tr = next
		return nil
	})
	if err != nil {
		return domain.Transition{}, s.fail(ctxError(err), "ride "+string(event)+" failed", p, rideID)
	}

	s.logger.Info("ride "+string(event),
		"ride_id", rideID,
		"principal_id", p.ID,
		"role", p.Role,
		"status", tr.Ride.Status,
	)

	return tr, nil
}

// Log the failure with the level matching its category and return it as is
func (s *RideService) fail(err error, msg string, p models.Principal, rideID uuid.UUID) error {
	args := []any{"principal_id", p.ID, "role", p.Role, "kind", apperrors.KindOf(err), "error", err}
	if rideID != uuid.Nil {
		args = append(args, "ride_id", rideID)
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindInfrastructure, apperrors.KindUnknown:
		s.logger.Error(msg, args...)
	default:
		s.logger.Info(msg, args...)
	}

	return err
}

// Operation deadline or cancellation is an infrastructure failure whatever layer noticed it
func ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Infrastructure(err)
	}
	return err
}
