package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atlaspay/atlaspay-backend/internal/ledger"
	"github.com/atlaspay/atlaspay-backend/pkg/config"
	"github.com/atlaspay/atlaspay-backend/pkg/db"
	"github.com/atlaspay/atlaspay-backend/pkg/db/models"
	"github.com/atlaspay/atlaspay-backend/pkg/enums"
	pkgerrors "github.com/atlaspay/atlaspay-backend/pkg/errors"
	"github.com/atlaspay/atlaspay-backend/pkg/logger"
	"github.com/atlaspay/atlaspay-backend/pkg/metrics"
	"github.com/atlaspay/atlaspay-backend/pkg/outbox"
	"github.com/atlaspay/atlaspay-backend/pkg/outbox/payloads"
	"github.com/atlaspay/atlaspay-backend/pkg/pagination"
)

// Partial unique index over (user_id, idempotency_key) from the migrations.
const idempotencyConstraint = "uq_orders_user_idempotency_key"

type unitRunner interface {
	RunUnit(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service registers orders with exactly-once semantics per idempotency
// key and applies the configured availability policy on persistence
// failures.
type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*CreateResult, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo      Repository
	units     unitRunner
	outbox    outboxPublisher
	metrics   *metrics.LedgerMetrics
	cfg       config.LedgerConfig
	maxAmount decimal.Decimal
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies for an order service.
type ServiceParams struct {
	Repo         Repository
	Units        unitRunner
	Outbox       outboxPublisher
	Metrics      *metrics.LedgerMetrics
	LedgerConfig config.LedgerConfig
	Logger       *logger.Logger
}

// NewService builds an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Units == nil {
		return nil, fmt.Errorf("unit runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if !params.LedgerConfig.MaxOrder().IsPositive() {
		return nil, fmt.Errorf("ledger max order amount must be positive")
	}
	return &service{
		repo:      params.Repo,
		units:     params.Units,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		cfg:       params.LedgerConfig,
		maxAmount: params.LedgerConfig.MaxOrder(),
		logg:      params.Logger,
	}, nil
}

// Create registers an order. A request with a previously seen idempotency
// key returns the existing order unchanged. Validation failures always
// propagate; persistence failures propagate in strict mode and are
// converted to a pending acceptance in degraded mode.
func (s *service) Create(ctx context.Context, req CreateOrderRequest) (*CreateResult, error) {
	currency, key, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}

	result, err := s.createOnce(ctx, req, currency, key)
	if err == nil {
		return result, nil
	}

	// Two creators racing on one key: the store's unique index picks the
	// winner, the loser observes the winning row. The losing transaction
	// is aborted, so the re-query runs outside it.
	if key != nil && db.IsUniqueViolation(err, idempotencyConstraint) {
		winner, findErr := s.repo.FindByIdempotencyKey(ctx, req.UserID, *key)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "resolve idempotency race")
		}
		return &CreateResult{Order: FromModel(winner)}, nil
	}

	if appErr := pkgerrors.As(err); appErr != nil {
		switch appErr.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeLockTimeout:
			return nil, err
		}
	}

	if s.cfg.Degraded() {
		return s.acceptPending(ctx, req, key, err), nil
	}
	return nil, err
}

// List returns one page of the user's orders, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) createOnce(ctx context.Context, req CreateOrderRequest, currency enums.Currency, key *string) (*CreateResult, error) {
	var result *CreateResult
	err := s.units.RunUnit(ctx, ledger.OpCreateOrder, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if key != nil {
			existing, err := repo.FindByIdempotencyKey(ctx, req.UserID, *key)
			if err == nil {
				result = &CreateResult{Order: FromModel(existing)}
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		order, err := repo.Create(ctx, &models.Order{
			UserID:         req.UserID,
			Amount:         req.Amount,
			Currency:       currency,
			IdempotencyKey: key,
			Status:         enums.OrderStatusCreated,
		})
		if err != nil {
			return err
		}
		result = &CreateResult{Order: FromModel(order)}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				Amount:         order.Amount,
				Currency:       order.Currency,
				IdempotencyKey: order.IdempotencyKey,
				Status:         order.Status,
			},
		}); err != nil {
			return err
		}

		s.metrics.IncOrderAccepted(string(enums.OrderStatusCreated))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// acceptPending records a degraded-mode acceptance. The order was not
// durably written, so no id is fabricated; the logged request is the
// reconciliation trail.
func (s *service) acceptPending(ctx context.Context, req CreateOrderRequest, key *string, cause error) *CreateResult {
	now := time.Now().UTC()
	if s.logg != nil {
		fields := map[string]any{
			"user_id":  req.UserID.String(),
			"amount":   req.Amount.StringFixed(2),
			"currency": strings.ToUpper(strings.TrimSpace(req.Currency)),
			"error":    cause.Error(),
		}
		if key != nil {
			fields["idempotency_key"] = *key
		}
		logCtx := s.logg.WithFields(ctx, fields)
		s.logg.Warn(logCtx, "order accepted pending, persistence unavailable")
	}
	s.metrics.IncOrderAccepted(string(enums.OrderStatusPending))
	return &CreateResult{Pending: true, AcceptedAt: &now}
}

func (s *service) validateCreate(req CreateOrderRequest) (enums.Currency, *string, error) {
	if req.UserID == uuid.Nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !req.Amount.IsPositive() {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if req.Amount.Exponent() < -2 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "amount precision is limited to 2 decimal places")
	}
	if req.Amount.GreaterThan(s.maxAmount) {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount exceeds the per-order limit of %s", s.maxAmount.StringFixed(2)))
	}

	currency, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}

	var key *string
	if req.IdempotencyKey != nil {
		trimmed := strings.TrimSpace(*req.IdempotencyKey)
		if trimmed != "" {
			key = &trimmed
		}
	}
	return currency, key, nil
}
