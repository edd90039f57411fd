package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const uniqueViolationCode = "23505"

// Constraints the storefront schema relies on for duplicate detection.
const (
	OrdersPrimaryKey   = "orders_pkey"
	WishlistPrimaryKey = "wishlist_items_pkey"
)

const sqliteUniquePrefix = "UNIQUE constraint failed: "

// DuplicateConstraint reports whether err is a unique violation and, when the
// driver exposes it, which constraint fired. Postgres errors carry the
// constraint name; sqlite only names the columns, e.g. "orders.id".
func DuplicateConstraint(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName, pgErr.Code == uniqueViolationCode
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint, string(pqErr.Code) == uniqueViolationCode
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	msg := err.Error()
	if i := strings.Index(msg, sqliteUniquePrefix); i >= 0 {
		return strings.TrimSpace(msg[i+len(sqliteUniquePrefix):]), true
	}
	return "", strings.Contains(msg, "duplicate key value")
}

// IsUniqueViolation reports a unique violation, optionally narrowed to one
// constraint. An empty constraint matches any violation. Untyped errors are
// matched on their message.
func IsUniqueViolation(err error, constraint string) bool {
	name, ok := DuplicateConstraint(err)
	switch {
	case !ok:
		return false
	case constraint == "":
		return true
	case name != "":
		return name == constraint
	default:
		return strings.Contains(err.Error(), constraint)
	}
}
