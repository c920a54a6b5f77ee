package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlaspay/atlaspay-backend/pkg/db/models"
	"github.com/atlaspay/atlaspay-backend/pkg/enums"
)

// CreateOrderRequest carries a new order submission. The idempotency key
// is optional; when present it deduplicates retries of the same intent.
type CreateOrderRequest struct {
	UserID         uuid.UUID       `json:"-"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Currency       string          `json:"currency" validate:"required"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
}

// OrderDTO is the transport shape for a registered order.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	UserID         uuid.UUID         `json:"user_id"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       enums.Currency    `json:"currency"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	Status         enums.OrderStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// CreateResult is the outcome of an order submission. Exactly one branch
// is populated: Order for a persisted row, or Pending when degraded mode
// accepted the request without a durable write. A pending result carries
// no order id; the submission must be reconciled out-of-band.
type CreateResult struct {
	Order      *OrderDTO  `json:"order,omitempty"`
	Pending    bool       `json:"pending"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// OrderList is one page of a user's orders plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:             o.ID,
		UserID:         o.UserID,
		Amount:         o.Amount,
		Currency:       o.Currency,
		IdempotencyKey: o.IdempotencyKey,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
}
