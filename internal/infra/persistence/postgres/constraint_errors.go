package postgres

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
)

// Helper functions for PostgreSQL error checking
func isUniqueConstraintViolation(err error) bool {
	// Check for GORM's duplicate key error, produced when TranslateError is enabled
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return hasPgCode(err, pgUniqueViolation)
}

func isNotNullConstraintViolation(err error) bool {
	return hasPgCode(err, pgNotNullViolation)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}

	return false
}
