package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a customer's spendable balance. One row per user; the
// row is locked FOR UPDATE for the duration of any balance mutation.
// The non-negative balance invariant is also enforced by a CHECK
// constraint in Postgres.
type Wallet struct {
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
