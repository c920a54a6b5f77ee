package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlaspay/atlaspay-backend/pkg/enums"
)

// Order is a registered payment order. IdempotencyKey is nullable; a
// partial unique index on (user_id, idempotency_key) guarantees at
// most one order per submitted key.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency       enums.Currency    `gorm:"column:currency;type:text;not null"`
	IdempotencyKey *string           `gorm:"column:idempotency_key;type:text"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:created"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
