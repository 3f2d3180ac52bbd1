package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	pgUniqueViolationCode    = "23505"
	pgConnectionFailureClass = "08"
)

// isUniqueViolation reports whether the error is a unique-constraint
// violation. The generations table has a single unique constraint, the
// primary key, so this can only mean a reused task id.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}

// isConnectionError reports whether the error indicates that the database
// could not be reached, as opposed to a query-level failure. Covers both
// driver-level connect errors and the SQLSTATE 08 connection class.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgConnectionFailureClass {
		return true
	}

	return false
}
