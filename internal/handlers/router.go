package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/handlers/middleware"
	"github.com/nkiryanov/ridehail/internal/idempotency"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
	rideservice "github.com/nkiryanov/ridehail/internal/service/ride"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Option func(*routerOptions)

type routerOptions struct {
	idempotencyStore idempotencyStore
	rateLimiter      *middleware.RateLimiter
}

// Replay responses of retried requests having Idempotency-Key header
func WithIdempotency(store idempotencyStore) Option {
	return func(o *routerOptions) { o.idempotencyStore = store }
}

// Limit request rate of every authenticated principal
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(o *routerOptions) { o.rateLimiter = rl }
}

func NewRouter(
	authService authService,
	accountService accountService,
	rideService rideService,
	logger logger.Logger,
	opts ...Option,
) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	protected := []func(http.Handler) http.Handler{middleware.AuthMiddleware(authService)}
	if o.rateLimiter != nil {
		protected = append(protected, o.rateLimiter.Middleware)
	}
	if o.idempotencyStore != nil {
		protected = append(protected, middleware.IdempotencyMiddleware(o.idempotencyStore, logger))
	}
	withAuth := func(h http.Handler) http.Handler {
		return chain(h, protected...)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", handleRegister(authService, logger))
	mux.Handle("POST /api/auth/login", handleLogin(authService, logger))

	mux.Handle("GET /api/profile", withAuth(handleProfile(accountService, logger)))
	mux.Handle("PUT /api/profile", withAuth(handleUpdateProfile(accountService, logger)))

	mux.Handle("GET /api/wallet", withAuth(handleWallet(accountService, logger)))
	mux.Handle("POST /api/wallet/topup", withAuth(handleTopUp(accountService, logger)))
	mux.Handle("GET /api/wallet/transactions", withAuth(handleListTransactions(accountService, logger)))

	mux.Handle("POST /api/rides/request", withAuth(handleRequestRide(rideService, logger)))
	mux.Handle("GET /api/rides/available", withAuth(handleListAvailableRides(rideService, logger)))
	mux.Handle("GET /api/rides/my-rides", withAuth(handleListMyRides(rideService, logger)))
	mux.Handle("GET /api/rides/{rideID}", withAuth(handleGetRide(rideService, logger)))
	mux.Handle("PUT /api/rides/accept/{rideID}", withAuth(handleRideAction(rideService.AcceptRide, logger)))
	mux.Handle("PUT /api/rides/start/{rideID}", withAuth(handleRideAction(rideService.StartRide, logger)))
	mux.Handle("PUT /api/rides/complete/{rideID}", withAuth(handleRideAction(rideService.CompleteRide, logger)))
	mux.Handle("PUT /api/rides/cancel/{rideID}", withAuth(handleCancelRide(rideService, logger)))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register account and issue access token
	// Has to return apperrors.ErrAccountAlreadyExists if username is taken
	Register(ctx context.Context, username string, password string, role models.Role) (models.IssuedToken, error)

	// Login with username and password
	// Has to return apperrors.ErrInvalidCredentials on any mismatch
	Login(ctx context.Context, username string, password string) (models.IssuedToken, error)

	// Set access token to response
	SetToken(w http.ResponseWriter, token models.IssuedToken)

	// Get request and return principal if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.Principal, error)
}

type accountService interface {
	GetAccount(ctx context.Context, p models.Principal) (models.Account, error)
	UpdateProfile(ctx context.Context, p models.Principal, profile models.Profile) (models.Account, error)
	TopUp(ctx context.Context, p models.Principal, amount decimal.Decimal) (models.Account, error)
	ListTransactions(ctx context.Context, p models.Principal) ([]models.LedgerEntry, error)
}

type rideService interface {
	RequestRide(ctx context.Context, p models.Principal, pickup string, dropoff string, fare decimal.Decimal) (models.Ride, error)
	ListAvailableRides(ctx context.Context, p models.Principal) ([]models.Ride, error)
	AcceptRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error)
	StartRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error)
	CompleteRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error)
	CancelRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (rideservice.CancelResult, error)
	ListMyRides(ctx context.Context, p models.Principal) ([]models.Ride, error)
	GetRide(ctx context.Context, p models.Principal, rideID uuid.UUID) (models.Ride, error)
}

type idempotencyStore interface {
	Get(ctx context.Context, key string) (idempotency.Response, bool, error)
	Lock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
	Save(ctx context.Context, key string, resp idempotency.Response) error
}
