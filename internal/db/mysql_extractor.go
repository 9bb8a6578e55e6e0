package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// MySQLExtractor reads tables of one database from information_schema
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates an extractor for the database schemaName
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// ExtractSchema extracts the requested tables, or every base table of the database
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	var tableNames []string
	err := e.query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, []any{e.schemaName}, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		tableNames = append(tableNames, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	return extractTables(ctx, filterRequested(tableNames, tables), e.extractTable)
}

// query runs a statement and calls scan once per row
func (e *MySQLExtractor) query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := e.client.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	var err error
	if table.Columns, table.PrimaryKey, err = e.extractColumns(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if table.Relations, err = e.extractRelations(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}
	if table.Indexes, err = e.extractIndexes(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}

	return table, nil
}

// extractColumns reads columns and the primary key in one pass. The key
// position comes from the PRIMARY constraint, since a composite key need not
// follow column order.
//
// column_default holds literals unquoted and expression defaults such as
// utc_timestamp(6) as written, which is how NormalizeExpr compares them.
func (e *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	type keyPart struct {
		position int64
		name     string
	}

	var columns []schema.Column
	var keyParts []keyPart

	err := e.query(ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable = 'YES',
			c.column_default,
			c.extra LIKE '%auto_increment%',
			k.ordinal_position
		FROM information_schema.columns c
		LEFT JOIN information_schema.key_column_usage k
			ON k.table_schema = c.table_schema
			AND k.table_name = c.table_name
			AND k.column_name = c.column_name
			AND k.constraint_name = 'PRIMARY'
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, []any{e.schemaName, tableName}, func(rows *sql.Rows) error {
		var col schema.Column
		var defaultVal sql.NullString
		var keyPosition sql.NullInt64

		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &defaultVal, &col.Identity, &keyPosition); err != nil {
			return err
		}
		if defaultVal.Valid {
			col.DefaultValue = &defaultVal.String
		}
		if keyPosition.Valid {
			keyParts = append(keyParts, keyPart{position: keyPosition.Int64, name: col.Name})
		}

		columns = append(columns, col)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(keyParts, func(i, j int) bool { return keyParts[i].position < keyParts[j].position })
	pk := make([]string, 0, len(keyParts))
	for _, part := range keyParts {
		pk = append(pk, part.name)
	}

	return columns, pk, nil
}

// extractRelations reads foreign keys with their ON DELETE action
func (e *MySQLExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	var relations []schema.Relation

	err := e.query(ctx, `
		SELECT
			k.column_name,
			k.referenced_table_name,
			k.referenced_column_name,
			r.delete_rule
		FROM information_schema.key_column_usage k
		JOIN information_schema.referential_constraints r
			ON r.constraint_schema = k.table_schema
			AND r.table_name = k.table_name
			AND r.constraint_name = k.constraint_name
		WHERE k.table_schema = ? AND k.table_name = ?
		ORDER BY k.constraint_name, k.ordinal_position
	`, []any{e.schemaName, tableName}, func(rows *sql.Rows) error {
		rel := schema.Relation{Cardinality: "N:1"}
		if err := rows.Scan(&rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn, &rel.OnDelete); err != nil {
			return err
		}
		relations = append(relations, rel)
		return nil
	})

	return relations, err
}

// extractIndexes reads secondary indexes. Foreign key columns without a
// declared index get one named after the constraint; those are kept too.
func (e *MySQLExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	var indexes []schema.Index

	err := e.query(ctx, `
		SELECT
			s.index_name,
			MIN(s.non_unique) = 0,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index SEPARATOR ',')
		FROM information_schema.statistics s
		WHERE s.table_schema = ? AND s.table_name = ? AND s.index_name <> 'PRIMARY'
		GROUP BY s.index_name
		ORDER BY s.index_name
	`, []any{e.schemaName, tableName}, func(rows *sql.Rows) error {
		var idx schema.Index
		var columnNames string
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &columnNames); err != nil {
			return err
		}
		idx.Columns = strings.Split(columnNames, ",")
		indexes = append(indexes, idx)
		return nil
	})

	return indexes, err
}
