package wallets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlaspay/atlaspay-backend/pkg/db/models"
)

// WalletDTO is the wallet snapshot returned by ledger operations.
type WalletDTO struct {
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MutationRequest carries a credit or debit against one wallet.
type MutationRequest struct {
	UserID uuid.UUID       `json:"-"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

func FromModel(w *models.Wallet) *WalletDTO {
	if w == nil {
		return nil
	}
	return &WalletDTO{
		UserID:    w.UserID,
		Balance:   w.Balance,
		UpdatedAt: w.UpdatedAt,
	}
}
