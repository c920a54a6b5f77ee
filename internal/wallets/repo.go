package wallets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atlaspay/atlaspay-backend/pkg/db/models"
)

// Repository defines persistence operations for wallet rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateIfAbsent(ctx context.Context, userID uuid.UUID) error
	UpdateBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// FindForUpdate loads the wallet row under an exclusive lock. The lock is
// held until the surrounding transaction commits or rolls back, which
// serializes concurrent mutations of the same wallet. SQLite locks the
// whole database per write transaction, so the clause is Postgres-only.
func (r *repository) FindForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var wallet models.Wallet
	if err := query.First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CreateIfAbsent inserts a zero-balance wallet for the user, ignoring the
// insert when a row already exists.
func (r *repository) CreateIfAbsent(ctx context.Context, userID uuid.UUID) error {
	wallet := models.Wallet{UserID: userID, Balance: decimal.Zero}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&wallet).Error
}

// UpdateBalance persists the new balance with an explicit mutation
// timestamp so callers can return a snapshot matching the row.
func (r *repository) UpdateBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"balance": balance, "updated_at": at}).Error
}
