package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrConstraintViolation is returned when the storage engine rejects a write
// because of a declared constraint: length, precision, uniqueness, required
// field or foreign key. The write must not be retried as is.
var ErrConstraintViolation = errors.New("constraint violation")

var (
	// ErrNotPersisted is returned when a write names a field the declaration excludes
	ErrNotPersisted  = errors.New("field is not persisted")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	// ErrIncompleteKey is returned when a lookup does not supply every key column
	ErrIncompleteKey = errors.New("incomplete primary key")
	ErrNotFound      = errors.New("not found")
)

// MySQL server error numbers that signal a constraint breach
var mysqlConstraintErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1264: true, // out of range value
	1406: true, // data too long
	1451: true, // parent row referenced
	1452: true, // foreign key fails
	3819: true, // check constraint violated
}

// classify wraps engine constraint errors in ErrConstraintViolation and
// returns every other error unchanged.
func classify(err error) error {
	if err == nil || !isConstraintError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23 is integrity violations, 22001 and 22003 are length and numeric overflow
		return strings.HasPrefix(pgErr.Code, "23") || pgErr.Code == "22001" || pgErr.Code == "22003"
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlConstraintErrors[mysqlErr.Number]
	}

	return false
}
