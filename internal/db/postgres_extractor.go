package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/jackc/pgx/v5"
)

// PostgresExtractor reads tables of one schema from the PostgreSQL catalogs
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates an extractor for schemaName
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractSchema extracts the requested tables, or every base table of the schema
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	rows, err := e.client.GetConnection().Query(ctx, `
		SELECT c.relname
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relkind IN ('r', 'p')
		ORDER BY c.relname
	`, e.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	tableNames, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	return extractTables(ctx, filterRequested(tableNames, tables), e.extractTable)
}

func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	var err error
	if table.Columns, err = e.extractColumns(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if table.PrimaryKey, err = e.extractPrimaryKey(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if err = e.attachChecks(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract checks: %w", err)
	}
	if table.Relations, err = e.extractRelations(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}
	if table.Indexes, err = e.extractIndexes(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}

	return table, nil
}

// tableFilter restricts a pg_class alias t to the extracted table
const tableFilter = `
		JOIN pg_class t ON t.oid = %s
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1 AND t.relname = $2`

// extractColumns reads columns in attribute order. Types come from
// format_type so lengths and precision are kept, and defaults come back as
// pg_get_expr renders them, casts included.
func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			pg_get_expr(d.adbin, d.adrelid),
			a.attidentity <> ''
		FROM pg_attribute a
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum` +
		fmt.Sprintf(tableFilter, "a.attrelid") + `
			AND a.attnum > 0
			AND NOT a.attisdropped
		ORDER BY a.attnum
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Column, error) {
		var col schema.Column
		err := row.Scan(&col.Name, &col.Type, &col.Nullable, &col.DefaultValue, &col.Identity)
		return col, err
	})
}

// extractPrimaryKey returns the key columns in constraint order, which is
// not attribute order for MovieCast and Review.
func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT a.attname
		FROM pg_index ix
		JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = ANY(ix.indkey)` +
		fmt.Sprintf(tableFilter, "ix.indrelid") + `
			AND ix.indisprimary
		ORDER BY array_position(ix.indkey, a.attnum)
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

type columnCheck struct {
	Column string
	Body   string
}

// attachChecks sets CheckConstraint from single-column CHECK constraints
func (e *PostgresExtractor) attachChecks(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT a.attname, pg_get_constraintdef(c.oid)
		FROM pg_constraint c
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = c.conkey[1]` +
		fmt.Sprintf(tableFilter, "c.conrelid") + `
			AND c.contype = 'c'
			AND cardinality(c.conkey) = 1
		ORDER BY c.conname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	checks, err := pgx.CollectRows(rows, pgx.RowToStructByPos[columnCheck])
	if err != nil {
		return err
	}

	for _, check := range checks {
		if col := table.Column(check.Column); col != nil {
			body := strings.TrimPrefix(check.Body, "CHECK ")
			col.CheckConstraint = &body
		}
	}
	return nil
}

// confdeltype codes of pg_constraint
var deleteRules = map[string]string{
	"a": "NO ACTION",
	"r": "RESTRICT",
	"c": "CASCADE",
	"n": "SET NULL",
	"d": "SET DEFAULT",
}

// extractRelations reads single-column foreign keys with their ON DELETE action
func (e *PostgresExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	query := `
		SELECT a.attname, ft.relname, fa.attname, c.confdeltype::text
		FROM pg_constraint c
		JOIN pg_class ft ON ft.oid = c.confrelid
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = c.conkey[1]
		JOIN pg_attribute fa ON fa.attrelid = c.confrelid AND fa.attnum = c.confkey[1]` +
		fmt.Sprintf(tableFilter, "c.conrelid") + `
			AND c.contype = 'f'
			AND cardinality(c.conkey) = 1
		ORDER BY c.conname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Relation, error) {
		rel := schema.Relation{Cardinality: "N:1"}
		var code string
		if err := row.Scan(&rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn, &code); err != nil {
			return rel, err
		}
		rel.OnDelete = deleteRules[code]
		return rel, nil
	})
}

// extractIndexes reads secondary indexes, skipping the primary key
func (e *PostgresExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname,
			ix.indisunique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum))
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = ANY(ix.indkey)` +
		fmt.Sprintf(tableFilter, "ix.indrelid") + `
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Index, error) {
		var idx schema.Index
		err := row.Scan(&idx.Name, &idx.IsUnique, &idx.Columns)
		return idx, err
	})
}
