package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atlaspay/atlaspay-backend/pkg/db"
	"github.com/atlaspay/atlaspay-backend/pkg/db/models"
	"github.com/atlaspay/atlaspay-backend/pkg/enums"
	"github.com/atlaspay/atlaspay-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount NUMERIC NOT NULL CONSTRAINT ck_orders_amount_positive CHECK (amount > 0),
  currency TEXT NOT NULL,
  idempotency_key TEXT,
  status TEXT NOT NULL DEFAULT 'created',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(orders).Error)
	require.NoError(t, conn.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_user_idempotency_key
  ON orders (user_id, idempotency_key)
  WHERE idempotency_key IS NOT NULL;`).Error)
	return conn
}

func newOrder(userID uuid.UUID, amount string, key *string, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         decimal.RequireFromString(amount),
		Currency:       enums.CurrencyUSD,
		IdempotencyKey: key,
		Status:         enums.OrderStatusCreated,
		CreatedAt:      createdAt,
	}
}

func TestCreateAndFindOrder(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	key := "retry-1"

	created, err := repo.Create(ctx, newOrder(userID, "120", &key, time.Now().UTC()))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, byID.UserID)
	assert.True(t, byID.Amount.Equal(decimal.RequireFromString("120")))

	byKey, err := repo.FindByIdempotencyKey(ctx, userID, key)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byKey.ID)
}

func TestIdempotencyKeyUniquePerUser(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	key := "dup-key"

	first, err := repo.Create(ctx, newOrder(userID, "10", &key, time.Now().UTC()))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newOrder(userID, "10", &key, time.Now().UTC()))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "uq_orders_user_idempotency_key"))

	// The same key under a different user is a different intent: it gets
	// its own order, and each user's key lookup resolves to their own row.
	otherUser := uuid.New()
	second, err := repo.Create(ctx, newOrder(otherUser, "10", &key, time.Now().UTC()))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	mine, err := repo.FindByIdempotencyKey(ctx, userID, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, mine.ID)

	theirs, err := repo.FindByIdempotencyKey(ctx, otherUser, key)
	require.NoError(t, err)
	assert.Equal(t, second.ID, theirs.ID)
}

func TestNullKeysDoNotCollide(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Create(ctx, newOrder(userID, "10", nil, time.Now().UTC()))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newOrder(userID, "20", nil, time.Now().UTC()))
	assert.NoError(t, err)
}

func TestListByUserPaginates(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newOrder(userID, "10", nil, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	// Another user's orders stay out of the listing.
	_, err := repo.Create(ctx, newOrder(uuid.New(), "99", nil, base))
	require.NoError(t, err)

	page, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotNil(t, page.NextCursor)
	assert.True(t, page.Orders[0].CreatedAt.After(page.Orders[1].CreatedAt))

	rest, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Nil(t, rest.NextCursor)
	assert.True(t, rest.Orders[0].CreatedAt.Equal(base))
}
