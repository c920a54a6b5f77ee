package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/atlaspay/atlaspay-backend/pkg/config"
	"github.com/atlaspay/atlaspay-backend/pkg/db"
	pkgerrors "github.com/atlaspay/atlaspay-backend/pkg/errors"
	"github.com/atlaspay/atlaspay-backend/pkg/metrics"
)

// Wallet balance check constraint name from the migrations. A violation during
// a debit means the wallet would go negative.
const balanceConstraint = "ck_wallets_balance_non_negative"

// Operation labels applied to unit metrics.
const (
	OpGetWallet   = "get_wallet"
	OpCredit      = "credit"
	OpDebit       = "debit"
	OpCreateOrder = "create_order"
)

// Coordinator runs units of work against the ledger inside a single database
// transaction. Every unit either commits in full or rolls back in full, and
// any row lock acquired inside the unit is held until the transaction ends.
// Lock waits are bounded by the configured timeout so a busy wallet surfaces
// as a retryable error instead of an unbounded stall.
type Coordinator struct {
	db      *db.Client
	cfg     config.LedgerConfig
	metrics *metrics.LedgerMetrics
}

// CoordinatorParams bundles the dependencies for a Coordinator.
type CoordinatorParams struct {
	DB      *db.Client
	Config  config.LedgerConfig
	Metrics *metrics.LedgerMetrics
}

// NewCoordinator validates the params and builds a Coordinator.
func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Config.LockWaitTimeout <= 0 {
		return nil, fmt.Errorf("lock wait timeout must be positive")
	}
	return &Coordinator{
		db:      params.DB,
		cfg:     params.Config,
		metrics: params.Metrics,
	}, nil
}

// RunUnit executes fn inside one transaction with the lock wait timeout
// applied. Database-level failures are translated into coded errors:
// a lock wait that exceeds the timeout becomes LOCK_TIMEOUT and a balance
// constraint violation becomes INSUFFICIENT_FUNDS. The operation label is
// attached to the duration and failure metrics.
func (c *Coordinator) RunUnit(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	start := time.Now()

	err := c.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.applyLockTimeout(tx); err != nil {
			return err
		}
		return fn(tx)
	})
	err = c.translate(err)
	c.record(operation, err, time.Since(start))
	return err
}

// applyLockTimeout bounds row lock waits for the rest of the transaction.
// SET LOCAL is scoped to the current transaction and resets on commit or
// rollback. SQLite has no lock_timeout; its contention surfaces as busy
// errors which translate handles by message.
func (c *Coordinator) applyLockTimeout(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", c.cfg.LockWaitTimeout.Milliseconds())
	return tx.Exec(stmt).Error
}

func (c *Coordinator) translate(err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case db.IsLockNotAvailable(err):
		return pkgerrors.Wrap(pkgerrors.CodeLockTimeout, err, "lock wait exceeded timeout")
	case db.IsCheckViolation(err, balanceConstraint):
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientFunds, err, "wallet balance would go negative")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unit failed")
	}
}

func (c *Coordinator) record(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if appErr := pkgerrors.As(err); appErr != nil {
		switch appErr.Code() {
		case pkgerrors.CodeLockTimeout:
			outcome = "lock_timeout"
			c.metrics.IncLockTimeout(operation)
		case pkgerrors.CodeInsufficientFunds:
			outcome = "insufficient_funds"
			c.metrics.IncInsufficientFunds()
		default:
			outcome = "error"
		}
	} else if err != nil {
		outcome = "error"
	}
	c.metrics.ObserveUnit(operation, outcome, elapsed)
}
