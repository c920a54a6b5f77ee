package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the ledger cares about.
const (
	PGCodeUniqueViolation  = "23505"
	PGCodeCheckViolation   = "23514"
	PGCodeLockNotAvailable = "55P03"
)

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// IsUniqueViolation reports whether the provided error is a unique
// constraint violation. When constraintName is provided, only that
// constraint matches. The message fallback covers the sqlite driver
// used in tests, which does not surface Postgres error codes.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pgErr := pgError(err); pgErr != nil {
		if pgErr.Code != PGCodeUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsCheckViolation reports whether the provided error is a check
// constraint violation, such as a wallet balance dropping below zero.
func IsCheckViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pgErr := pgError(err); pgErr != nil {
		if pgErr.Code != PGCodeCheckViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "CHECK constraint failed")
}

// IsLockNotAvailable reports whether a row lock could not be acquired
// before lock_timeout expired.
func IsLockNotAvailable(err error) bool {
	if err == nil {
		return false
	}
	if pgErr := pgError(err); pgErr != nil {
		return pgErr.Code == PGCodeLockNotAvailable
	}
	return strings.Contains(err.Error(), "lock timeout")
}
