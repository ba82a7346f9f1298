package account

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository/postgres"
	"github.com/nkiryanov/ridehail/internal/service/auth"
	"github.com/nkiryanov/ridehail/internal/testutil"
)

func TestAccount(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper function to create AccountService within transaction
	withTx := func(t *testing.T, fn func(s *AccountService)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(NewService(auth.DefaultHasher, postgres.NewStorage(tx), 0))
		})
	}

	t.Run("CreateAccount", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				account, err := s.CreateAccount(t.Context(), "test-user", "password123", models.RoleRider)

				require.NoError(t, err, "creating new account should be ok")
				require.NotEmpty(t, account.ID)
				require.Equal(t, "test-user", account.Username)
				require.Equal(t, models.RoleRider, account.Role)
				require.NotEqual(t, "password123", account.HashedPassword, "password should be hashed")
				require.True(t, account.Balance.IsZero(), "initial balance should be zero")
			})
		})

		t.Run("create duplicate fail", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				_, err := s.CreateAccount(t.Context(), "test-user", "password123", models.RoleRider)
				require.NoError(t, err)

				_, err = s.CreateAccount(t.Context(), "test-user", "different_password", models.RoleDriver)

				require.ErrorIs(t, err, apperrors.ErrAccountAlreadyExists)
			})
		})

		t.Run("unknown role fail", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				_, err := s.CreateAccount(t.Context(), "test-user", "password123", models.Role("admin"))

				require.ErrorIs(t, err, apperrors.ErrInvalidRole)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("login ok", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				created, err := s.CreateAccount(t.Context(), "test-user", "password123", models.RoleDriver)
				require.NoError(t, err)

				account, err := s.Login(t.Context(), "test-user", "password123")

				require.NoError(t, err)
				require.Equal(t, created.ID, account.ID)
			})
		})

		tests := []struct {
			name     string
			login    string
			password string
		}{
			{"wrong password", "test-user", "wrong"},
			{"unknown user", "nobody", "password123"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(t, func(s *AccountService) {
					_, err := s.CreateAccount(t.Context(), "test-user", "password123", models.RoleDriver)
					require.NoError(t, err)

					_, err = s.Login(t.Context(), tt.login, tt.password)

					require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
				})
			})
		}
	})

	t.Run("Wallet", func(t *testing.T) {
		t.Run("top up and history", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				account, err := s.CreateAccount(t.Context(), "test-user", "password123", models.RoleRider)
				require.NoError(t, err)
				p := account.Principal()

				_, err = s.TopUp(t.Context(), p, decimal.RequireFromString("150.25"))
				require.NoError(t, err)
				account, err = s.TopUp(t.Context(), p, decimal.NewFromInt(50))
				require.NoError(t, err)
				require.Equal(t, "200.25", account.Balance.String())

				got, err := s.GetAccount(t.Context(), p)
				require.NoError(t, err)
				require.True(t, got.Balance.Equal(account.Balance))

				entries, err := s.ListTransactions(t.Context(), p)
				require.NoError(t, err)
				require.Len(t, entries, 2)
				for _, e := range entries {
					require.Equal(t, models.EntryTopUp, e.Kind)
				}
			})
		})

		t.Run("top up with invalid amount", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				account, err := s.CreateAccount(t.Context(), "test-user", "password123", models.RoleRider)
				require.NoError(t, err)

				for _, amount := range []string{"0", "-10", "1.001", "1000000000000"} {
					_, err = s.TopUp(t.Context(), account.Principal(), decimal.RequireFromString(amount))
					require.ErrorIs(t, err, apperrors.ErrInvalidAmount, amount)
				}
			})
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		t.Run("driver with vehicle", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				account, err := s.CreateAccount(t.Context(), "driver", "password123", models.RoleDriver)
				require.NoError(t, err)

				updated, err := s.UpdateProfile(t.Context(), account.Principal(), models.Profile{
					Name:    " Ivan ",
					Email:   "Ivan@Example.com",
					Phone:   "+79990001122",
					Vehicle: &models.Vehicle{LicenseNumber: "77AB123", Type: models.VehicleCar, Number: "a123bc77"},
				})
				require.NoError(t, err)

				stored, err := s.GetAccount(t.Context(), account.Principal())
				require.NoError(t, err)
				require.Equal(t, updated, stored)
				require.Equal(t, "Ivan", stored.Profile.Name)
				require.Equal(t, "ivan@example.com", stored.Profile.Email)
				require.Equal(t, &models.Vehicle{LicenseNumber: "77AB123", Type: models.VehicleCar, Number: "A123BC77"}, stored.Profile.Vehicle)
				require.True(t, stored.Balance.IsZero(), "profile update must not touch the wallet")
			})
		})

		t.Run("rider without vehicle", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				account, err := s.CreateAccount(t.Context(), "rider", "password123", models.RoleRider)
				require.NoError(t, err)

				updated, err := s.UpdateProfile(t.Context(), account.Principal(), models.Profile{Name: "Anna", Email: "anna@example.com"})

				require.NoError(t, err)
				require.Equal(t, "Anna", updated.Profile.Name)
				require.Nil(t, updated.Profile.Vehicle)
			})
		})

		t.Run("invalid vehicle", func(t *testing.T) {
			withTx(t, func(s *AccountService) {
				rider, err := s.CreateAccount(t.Context(), "rider", "password123", models.RoleRider)
				require.NoError(t, err)
				driver, err := s.CreateAccount(t.Context(), "driver", "password123", models.RoleDriver)
				require.NoError(t, err)

				tests := []struct {
					name    string
					p       models.Principal
					vehicle *models.Vehicle
					wantErr error
				}{
					{"rider with vehicle", rider.Principal(), &models.Vehicle{LicenseNumber: "1", Type: models.VehicleBike, Number: "2"}, apperrors.ErrVehicleNotAllowed},
					{"driver without vehicle", driver.Principal(), nil, apperrors.ErrVehicleRequired},
					{"driver with blank license", driver.Principal(), &models.Vehicle{LicenseNumber: " ", Type: models.VehicleCar, Number: "2"}, apperrors.ErrVehicleRequired},
					{"unknown vehicle type", driver.Principal(), &models.Vehicle{LicenseNumber: "1", Type: "truck", Number: "2"}, apperrors.ErrInvalidVehicle},
				}
				for _, tt := range tests {
					_, err := s.UpdateProfile(t.Context(), tt.p, models.Profile{Name: "N", Vehicle: tt.vehicle})
					require.ErrorIs(t, err, tt.wantErr, tt.name)
					require.ErrorIs(t, err, apperrors.ErrInvalidInput, tt.name)
				}
			})
		})
	})
}
