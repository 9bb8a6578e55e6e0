// Package migrate applies the declared schema to a database and reports
// where a live database has drifted from it.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/HitTheRhythm/movieshop/internal/db"
	"github.com/HitTheRhythm/movieshop/internal/dialect"
	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/sirupsen/logrus"
)

// Execer runs a statement. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Migrator creates the declared tables
type Migrator struct {
	exec    Execer
	dialect dialect.Dialect
	log     logrus.FieldLogger
}

// NewMigrator creates a migrator. A nil logger discards output.
func NewMigrator(exec Execer, d dialect.Dialect, logger logrus.FieldLogger) *Migrator {
	if logger == nil {
		discard := logrus.New()
		discard.Out = io.Discard
		logger = discard
	}
	return &Migrator{
		exec:    exec,
		dialect: d,
		log:     logger.WithField("dialect", d.Name()),
	}
}

// Apply validates the declaration and runs its DDL. Running it again
// against an up-to-date database changes nothing.
func (m *Migrator) Apply(ctx context.Context, s *schema.Schema) error {
	if err := schema.Validate(s); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	stmts, err := dialect.Script(m.dialect, s)
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}

	for _, stmt := range stmts {
		m.log.WithField("sql", stmt).Debug("executing statement")
		if _, err := m.exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	m.log.WithFields(logrus.Fields{
		"tables":     len(s.Tables),
		"statements": len(stmts),
	}).Info("schema applied")

	return nil
}

// Verify extracts the declared tables from the database and diffs them.
// The drifts are returned together with ErrSchemaDrift when any exist.
func Verify(ctx context.Context, extractor db.SchemaExtractor, declared *schema.Schema, d dialect.Dialect) ([]Drift, error) {
	names := make([]string, len(declared.Tables))
	for i, t := range declared.Tables {
		names[i] = t.Name
	}

	actual, err := extractor.ExtractSchema(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}

	drifts := Diff(declared, actual, d)
	if len(drifts) > 0 {
		return drifts, fmt.Errorf("%w: %d difference(s)", ErrSchemaDrift, len(drifts))
	}
	return nil, nil
}
