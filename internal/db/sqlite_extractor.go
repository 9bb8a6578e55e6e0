package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	return extractTables(ctx, tableNames, e.extractTable)
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return filterRequested(tableList, requestedTables), nil
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	if err := e.attachChecks(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract checks: %w", err)
	}

	relations, err := e.extractRelations(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}
	table.Relations = relations

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

// extractColumns extracts columns and the primary key. The pk field of
// table_info is the 1-based position of the column within the key.
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type keyPart struct {
		order int
		name  string
	}

	var columns []schema.Column
	var keyParts []keyPart

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pkOrder int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder); err != nil {
			return nil, nil, err
		}

		col := schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if pkOrder > 0 {
			keyParts = append(keyParts, keyPart{order: pkOrder, name: name})
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(keyParts, func(i, j int) bool { return keyParts[i].order < keyParts[j].order })
	pk := make([]string, 0, len(keyParts))
	for _, part := range keyParts {
		pk = append(pk, part.name)
	}

	return columns, pk, nil
}

// SQLite keeps no catalog of CHECK constraints, only the CREATE TABLE text.
// Column length checks have the form CHECK (length("Name") <= n).
var lengthCheck = regexp.MustCompile(`(?i)CHECK\s*\(\s*(length\s*\(\s*(?:"((?:[^"]|"")+)"|(\w+))\s*\)\s*<=\s*\d+)\s*\)`)

// attachChecks sets CheckConstraint on the columns that carry a length check
func (e *SQLiteExtractor) attachChecks(ctx context.Context, table *schema.Table) error {
	var ddl sql.NullString
	err := e.client.GetDB().QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table.Name).Scan(&ddl)
	if err != nil {
		return err
	}

	for column, body := range lengthChecks(ddl.String) {
		if col := table.Column(column); col != nil {
			col.CheckConstraint = &body
		}
	}
	return nil
}

// lengthChecks maps column names to the body of their length check
func lengthChecks(ddl string) map[string]string {
	checks := make(map[string]string)
	for _, m := range lengthCheck.FindAllStringSubmatch(ddl, -1) {
		column := m[3]
		if m[2] != "" {
			column = strings.ReplaceAll(m[2], `""`, `"`)
		}
		checks[column] = m[1]
	}
	return checks
}

// extractRelations extracts foreign key relationships with their ON DELETE action
func (e *SQLiteExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	query := `SELECT "table", "from", "to", on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []schema.Relation
	for rows.Next() {
		var targetTable, fromCol, onDelete string
		var toCol sql.NullString

		if err := rows.Scan(&targetTable, &fromCol, &toCol, &onDelete); err != nil {
			return nil, err
		}

		relations = append(relations, schema.Relation{
			SourceColumn: fromCol,
			TargetTable:  targetTable,
			TargetColumn: toCol.String,
			Cardinality:  "N:1",
			OnDelete:     onDelete,
		})
	}

	return relations, rows.Err()
}

// extractIndexes extracts index information
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `SELECT name, "unique" FROM pragma_index_list(?) ORDER BY name`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var unique int
		if err := rows.Scan(&idx.Name, &unique); err != nil {
			rows.Close()
			return nil, err
		}

		// Skip auto-generated primary key indexes
		if strings.HasPrefix(idx.Name, "sqlite_autoindex") {
			continue
		}
		idx.IsUnique = unique == 1
		indexes = append(indexes, idx)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range indexes {
		columns, err := e.indexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
	}

	return indexes, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var colName sql.NullString
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}
