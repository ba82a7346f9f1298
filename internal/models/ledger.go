package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryTopUp      EntryKind = "topup"      // wallet funded from outside
	EntryEscrow     EntryKind = "escrow"     // fare debited from rider on request
	EntrySettlement EntryKind = "settlement" // fare credited to driver on completion
	EntryRefund     EntryKind = "refund"     // escrow share returned to rider on cancel
	EntryRetained   EntryKind = "retained"   // escrow share kept by the platform on cancel
)

// LedgerEntry is an append-only journal record of a balance change
type LedgerEntry struct {
	ID          uuid.UUID
	ProcessedAt time.Time
	AccountID   *uuid.UUID // nil for platform retained amounts
	RideID      *uuid.UUID // nil for top-ups
	Kind        EntryKind
	Amount      decimal.Decimal
}
