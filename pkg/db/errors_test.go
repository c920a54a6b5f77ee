package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: PGCodeUniqueViolation, ConstraintName: "uq_orders_user_idempotency_key"}

	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected pg unique violation to match")
	}
	if !IsUniqueViolation(pgErr, "uq_orders_user_idempotency_key") {
		t.Fatal("expected constraint-qualified match")
	}
	if IsUniqueViolation(pgErr, "uq_other") {
		t.Fatal("expected mismatch on other constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: PGCodeCheckViolation}, "") {
		t.Fatal("check violation should not match unique helper")
	}

	wrapped := fmt.Errorf("creating order: %w", pgErr)
	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected wrapped pg error to match")
	}

	sqliteErr := errors.New("UNIQUE constraint failed: orders.idempotency_key")
	if !IsUniqueViolation(sqliteErr, "") {
		t.Fatal("expected sqlite message fallback to match")
	}

	if IsUniqueViolation(nil, "") {
		t.Fatal("nil should never match")
	}
}

func TestIsCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: PGCodeCheckViolation, ConstraintName: "ck_wallets_balance_non_negative"}

	if !IsCheckViolation(pgErr, "ck_wallets_balance_non_negative") {
		t.Fatal("expected constraint-qualified match")
	}
	if !IsCheckViolation(errors.New("CHECK constraint failed: balance"), "") {
		t.Fatal("expected sqlite message fallback to match")
	}
	if IsCheckViolation(errors.New("duplicate key value"), "") {
		t.Fatal("unique message should not match check helper")
	}
}

func TestIsLockNotAvailable(t *testing.T) {
	if !IsLockNotAvailable(&pgconn.PgError{Code: PGCodeLockNotAvailable}) {
		t.Fatal("expected 55P03 to match")
	}
	if IsLockNotAvailable(&pgconn.PgError{Code: PGCodeUniqueViolation}) {
		t.Fatal("23505 should not match lock helper")
	}
	if !IsLockNotAvailable(errors.New("canceling statement due to lock timeout")) {
		t.Fatal("expected message fallback to match")
	}
	if IsLockNotAvailable(nil) {
		t.Fatal("nil should never match")
	}
}
