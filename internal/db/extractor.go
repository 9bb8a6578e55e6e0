package db

import (
	"context"
	"fmt"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// SchemaExtractor reads the live shape of a database
type SchemaExtractor interface {
	// ExtractSchema extracts the given tables, or every table when tables is empty.
	// Requested tables that do not exist are left out of the result.
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

var (
	_ SchemaExtractor = (*PostgresExtractor)(nil)
	_ SchemaExtractor = (*MySQLExtractor)(nil)
	_ SchemaExtractor = (*SQLiteExtractor)(nil)
)

type tableFunc func(ctx context.Context, tableName string) (*schema.Table, error)

func extractTables(ctx context.Context, tableNames []string, extract tableFunc) (*schema.Schema, error) {
	var extractedTables []schema.Table

	for _, tableName := range tableNames {
		table, err := extract(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extractedTables = append(extractedTables, *table)
	}

	return &schema.Schema{Tables: extractedTables}, nil
}

// filterRequested keeps the existing tables that were requested, in request order
func filterRequested(existing, requested []string) []string {
	if len(requested) == 0 {
		return existing
	}

	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	var tables []string
	for _, name := range requested {
		if present[name] {
			tables = append(tables, name)
		}
	}
	return tables
}
