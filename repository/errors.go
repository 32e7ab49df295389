package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Code classifies a data access failure.
type Code string

const (
	CodeNotFound        Code = "not_found"
	CodeUniqueViolation Code = "unique_violation"
	CodeUnavailable     Code = "unavailable"
	CodeInternal        Code = "internal"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violated")
)

// Error is returned by every Repository operation that fails.
type Error struct {
	Op     string
	Entity string
	Code   Code
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrUniqueViolation:
		return e.Code == CodeUniqueViolation
	}
	return false
}

// CodeOf returns the classification of err, or "" when err is not a
// repository error.
func CodeOf(err error) Code {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}

func wrap(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Entity: entity, Code: classify(err), Err: err}
}

func classify(err error) Code {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CodeNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return CodeUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return CodeUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return CodeUniqueViolation
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeUnavailable
	}
	return CodeInternal
}
