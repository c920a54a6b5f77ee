package wallets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atlaspay/atlaspay-backend/internal/ledger"
	"github.com/atlaspay/atlaspay-backend/pkg/config"
	"github.com/atlaspay/atlaspay-backend/pkg/db/models"
	"github.com/atlaspay/atlaspay-backend/pkg/enums"
	pkgerrors "github.com/atlaspay/atlaspay-backend/pkg/errors"
	"github.com/atlaspay/atlaspay-backend/pkg/outbox"
	"github.com/atlaspay/atlaspay-backend/pkg/outbox/payloads"
)

type unitRunner interface {
	RunUnit(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the single mutation path for wallet balances. Every credit
// and debit runs in its own unit of work holding an exclusive lock on the
// wallet row, so concurrent mutations of one wallet are strictly serialized.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*WalletDTO, error)
	Credit(ctx context.Context, req MutationRequest) (*WalletDTO, error)
	Debit(ctx context.Context, req MutationRequest) (*WalletDTO, error)
}

type service struct {
	repo      Repository
	units     unitRunner
	outbox    outboxPublisher
	maxAmount decimal.Decimal
}

// ServiceParams bundles the dependencies for a wallet service.
type ServiceParams struct {
	Repo         Repository
	Units        unitRunner
	Outbox       outboxPublisher
	LedgerConfig config.LedgerConfig
}

// NewService builds a wallet service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	if params.Units == nil {
		return nil, fmt.Errorf("unit runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if !params.LedgerConfig.MaxWallet().IsPositive() {
		return nil, fmt.Errorf("ledger max wallet amount must be positive")
	}
	return &service{
		repo:      params.Repo,
		units:     params.Units,
		outbox:    params.Outbox,
		maxAmount: params.LedgerConfig.MaxWallet(),
	}, nil
}

// Get returns the wallet snapshot, creating a zero-balance wallet on first
// access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*WalletDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var snapshot *WalletDTO
	err := s.units.RunUnit(ctx, ledger.OpGetWallet, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateIfAbsent(ctx, userID); err != nil {
			return err
		}
		wallet, err := repo.Find(ctx, userID)
		if err != nil {
			return err
		}
		snapshot = FromModel(wallet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Credit adds the amount to the wallet balance and returns the post-credit
// snapshot.
func (s *service) Credit(ctx context.Context, req MutationRequest) (*WalletDTO, error) {
	if err := s.validateMutation(req); err != nil {
		return nil, err
	}

	var snapshot *WalletDTO
	err := s.units.RunUnit(ctx, ledger.OpCredit, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.lockWallet(ctx, repo, req.UserID)
		if err != nil {
			return err
		}

		next := wallet.Balance.Add(req.Amount)
		now := time.Now().UTC()
		if err := repo.UpdateBalance(ctx, req.UserID, next, now); err != nil {
			return err
		}
		wallet.Balance = next
		wallet.UpdatedAt = now
		snapshot = FromModel(wallet)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletCredited,
			AggregateType: enums.AggregateWallet,
			AggregateID:   req.UserID,
			Data: payloads.WalletCreditedEvent{
				UserID:     req.UserID,
				Amount:     req.Amount,
				NewBalance: next,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Debit subtracts the amount if the balance covers it. A shortfall rolls
// the unit back and surfaces as INSUFFICIENT_FUNDS with the wallet
// unmodified.
func (s *service) Debit(ctx context.Context, req MutationRequest) (*WalletDTO, error) {
	if err := s.validateMutation(req); err != nil {
		return nil, err
	}

	var snapshot *WalletDTO
	err := s.units.RunUnit(ctx, ledger.OpDebit, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.lockWallet(ctx, repo, req.UserID)
		if err != nil {
			return err
		}

		if wallet.Balance.LessThan(req.Amount) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds").
				WithDetails(map[string]string{
					"balance":   wallet.Balance.StringFixed(2),
					"requested": req.Amount.StringFixed(2),
				})
		}

		next := wallet.Balance.Sub(req.Amount)
		now := time.Now().UTC()
		if err := repo.UpdateBalance(ctx, req.UserID, next, now); err != nil {
			return err
		}
		wallet.Balance = next
		wallet.UpdatedAt = now
		snapshot = FromModel(wallet)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletDebited,
			AggregateType: enums.AggregateWallet,
			AggregateID:   req.UserID,
			Data: payloads.WalletDebitedEvent{
				UserID:     req.UserID,
				Amount:     req.Amount,
				NewBalance: next,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// lockWallet ensures the row exists, then loads it under an exclusive lock.
// The insert runs before the locking read so first-touch mutations have a
// row to lock.
func (s *service) lockWallet(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Wallet, error) {
	if err := repo.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}
	return repo.FindForUpdate(ctx, userID)
}

func (s *service) validateMutation(req MutationRequest) error {
	if req.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !req.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if req.Amount.Exponent() < -2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount precision is limited to 2 decimal places")
	}
	if req.Amount.GreaterThan(s.maxAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount exceeds the per-operation limit of %s", s.maxAmount.StringFixed(2)))
	}
	return nil
}
