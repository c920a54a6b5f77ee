package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlaspay/atlaspay-backend/pkg/enums"
)

// OrderCreatedEvent signals a newly registered order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	UserID         uuid.UUID         `json:"user_id"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       enums.Currency    `json:"currency"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	Status         enums.OrderStatus `json:"status"`
}

// WalletCreditedEvent reports a committed wallet credit.
type WalletCreditedEvent struct {
	UserID     uuid.UUID       `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// WalletDebitedEvent reports a committed wallet debit.
type WalletDebitedEvent struct {
	UserID     uuid.UUID       `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}
