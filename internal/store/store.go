// Package store is a thin mapping between rows and the declared tables.
// It resolves names against the declaration and leaves every constraint to
// the storage engine, except decimal precision which some engines round
// silently.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HitTheRhythm/movieshop/internal/dialect"
	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row maps column names to values. Nil values are left out of inserts, so
// the column gets its storage default or NULL.
type Row map[string]any

// Store reads and writes rows of the declared tables
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
	schema  *schema.Schema
}

// New creates a store over db. s is the declaration the database was migrated with.
func New(db *sql.DB, d dialect.Dialect, s *schema.Schema) *Store {
	return &Store{db: db, dialect: d, schema: s}
}

// Insert writes one row and returns the generated identity, or 0 when the
// table has none.
func (s *Store) Insert(ctx context.Context, table string, row Row) (int64, error) {
	t, err := s.table(table)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	var columns []string
	var args []any
	for _, name := range names {
		if t.IsIgnored(name) {
			return 0, fmt.Errorf("%w: %s.%s", ErrNotPersisted, t.Name, name)
		}
		col := t.Column(name)
		if col == nil {
			return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, name)
		}

		value, ok, err := bind(*col, row[name])
		if err != nil {
			return 0, fmt.Errorf("%s.%s: %w", t.Name, name, err)
		}
		if !ok {
			continue
		}
		columns = append(columns, s.dialect.Quote(name))
		args = append(args, value)
	}

	query := s.insertSQL(t, columns)
	identity := identityColumn(t)

	if identity != "" && s.dialect.Name() == "postgres" {
		var id int64
		query += " RETURNING " + s.dialect.Quote(identity)
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, classify(err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	if identity == "" {
		return 0, nil
	}
	return res.LastInsertId()
}

func (s *Store) insertSQL(t *schema.Table, columns []string) string {
	table := s.dialect.Quote(t.Name)
	if len(columns) == 0 {
		if s.dialect.Name() == "mysql" {
			return "INSERT INTO " + table + " () VALUES ()"
		}
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = s.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// Get reads the row addressed by key, which must hold a value for every
// primary key column and nothing else.
func (s *Store) Get(ctx context.Context, table string, key Row) (Row, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}

	for name := range key {
		if !t.IsKey(name) {
			return nil, fmt.Errorf("%w: %s.%s is not a key column", ErrUnknownColumn, t.Name, name)
		}
	}

	var where []string
	var args []any
	for i, name := range t.PrimaryKey {
		value, ok, err := bind(*t.Column(name), key[name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, name, err)
		}
		// a missing, nil or typed-nil value would compare = NULL and match nothing
		if !ok {
			return nil, fmt.Errorf("%w: %s needs %s", ErrIncompleteKey, t.Name, strings.Join(t.PrimaryKey, ", "))
		}
		where = append(where, s.dialect.Quote(name)+" = "+s.dialect.Placeholder(i+1))
		args = append(args, value)
	}

	selected := make([]string, len(t.Columns))
	dest := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		selected[i] = s.dialect.Quote(col.Name)
		dest[i] = scanTarget(col)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(selected, ", "), s.dialect.Quote(t.Name), strings.Join(where, " AND "))

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, t.Name)
		}
		return nil, err
	}

	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		row[col.Name] = scannedValue(dest[i])
	}
	return row, nil
}

func (s *Store) table(name string) (*schema.Table, error) {
	t := s.schema.Table(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

func identityColumn(t *schema.Table) string {
	for _, col := range t.Columns {
		if col.Identity {
			return col.Name
		}
	}
	return ""
}

// bind converts v into the value written for col. ok is false when v is nil
// and the column should be left out.
func bind(col schema.Column, v any) (value any, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return nil, false, nil
	case *string:
		if x == nil {
			return nil, false, nil
		}
		return *x, true, nil
	case *int:
		if x == nil {
			return nil, false, nil
		}
		return int64(*x), true, nil
	case *bool:
		if x == nil {
			return nil, false, nil
		}
		return *x, true, nil
	case *time.Time:
		if x == nil {
			return nil, false, nil
		}
		return x.UTC(), true, nil
	case *decimal.Decimal:
		if x == nil {
			return nil, false, nil
		}
		return bindDecimal(col, *x)
	case decimal.Decimal:
		return bindDecimal(col, x)
	case time.Time:
		return x.UTC(), true, nil
	case uuid.UUID:
		return x.String(), true, nil
	case int:
		return int64(x), true, nil
	default:
		return v, true, nil
	}
}

// bindDecimal writes decimals as fixed-scale text so no engine goes through a float
func bindDecimal(col schema.Column, d decimal.Decimal) (any, bool, error) {
	if err := col.CheckDecimal(d); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return dialect.FormatDecimal(col, d), true, nil
}

func scanTarget(col schema.Column) any {
	switch col.Kind {
	case schema.KindInt:
		return &sql.NullInt64{}
	case schema.KindBool:
		return &sql.NullBool{}
	case schema.KindDecimal:
		return &decimal.NullDecimal{}
	case schema.KindTimestamp:
		return &sql.NullTime{}
	case schema.KindUUID:
		return &uuid.NullUUID{}
	default:
		return &sql.NullString{}
	}
}

func scannedValue(dest any) any {
	switch x := dest.(type) {
	case *sql.NullInt64:
		if x.Valid {
			return x.Int64
		}
	case *sql.NullBool:
		if x.Valid {
			return x.Bool
		}
	case *decimal.NullDecimal:
		if x.Valid {
			return x.Decimal
		}
	case *sql.NullTime:
		if x.Valid {
			return x.Time
		}
	case *uuid.NullUUID:
		if x.Valid {
			return x.UUID
		}
	case *sql.NullString:
		if x.Valid {
			return x.String
		}
	}
	return nil
}
