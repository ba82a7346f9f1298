package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
)

type walletResponse struct {
	Username string          `json:"username"`
	Role     models.Role     `json:"role"`
	Balance  decimal.Decimal `json:"balance"`
}

func newWalletResponse(a models.Account) walletResponse {
	return walletResponse{Username: a.Username, Role: a.Role, Balance: a.Balance}
}

func handleWallet(accountService accountService, l logger.Logger) http.Handler {
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

		render.JSON(w, newWalletResponse(account))
	})
}

func handleTopUp(accountService accountService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
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

		account, err := accountService.TopUp(r.Context(), p, data.Amount)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, newWalletResponse(account))
	})
}

func handleListTransactions(accountService accountService, l logger.Logger) http.Handler {
	type entry struct {
		ID          uuid.UUID        `json:"id"`
		Kind        models.EntryKind `json:"kind"`
		Amount      decimal.Decimal  `json:"amount"`
		RideID      *uuid.UUID       `json:"ride_id,omitempty"`
		ProcessedAt time.Time        `json:"processed_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		entries, err := accountService.ListTransactions(r.Context(), p)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		res := make([]entry, 0, len(entries))
		for _, e := range entries {
			res = append(res, entry{
				ID:          e.ID,
				Kind:        e.Kind,
				Amount:      e.Amount,
				RideID:      e.RideID,
				ProcessedAt: e.ProcessedAt,
			})
		}
		render.JSON(w, res)
	})
}
