package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// Postgres renders DDL for PostgreSQL
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// ColumnType uses the spelling format_type() reports, so extracted types compare directly
func (Postgres) ColumnType(col schema.Column) string {
	switch col.Kind {
	case schema.KindInt:
		return "integer"
	case schema.KindBool:
		return "boolean"
	case schema.KindString:
		if col.MaxLength > 0 {
			return fmt.Sprintf("character varying(%d)", col.MaxLength)
		}
		return "text"
	case schema.KindDecimal:
		return fmt.Sprintf("numeric(%d,%d)", col.Precision, col.Scale)
	case schema.KindTimestamp:
		return "timestamp without time zone"
	case schema.KindUUID:
		return "uuid"
	default:
		return "text"
	}
}

// Check is empty: the varchar type rejects over-length values.
func (Postgres) Check(schema.Column) string { return "" }

func (Postgres) NormalizeType(typ string) string { return normalize(typ) }

func (d Postgres) CreateTable(t *schema.Table) []string {
	var parts tableParts
	for _, col := range t.Columns {
		parts.columns = append(parts.columns, d.columnDef(t, col))
	}

	parts.constraints = append(parts.constraints,
		fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", d.Quote(primaryKeyName(t)), quoteList(d, t.PrimaryKey)))
	for _, rel := range t.Relations {
		parts.constraints = append(parts.constraints, foreignKeyClause(d, t, rel))
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", d.Quote(t.Name), parts.body())}
	for _, idx := range t.Indexes {
		stmts = append(stmts, createIndex(d, t, idx))
	}
	return stmts
}

func (d Postgres) columnDef(t *schema.Table, col schema.Column) string {
	def := d.Quote(col.Name) + " " + d.ColumnType(col)
	if notNull(t, col) {
		def += " NOT NULL"
	}
	if col.Identity {
		def += " GENERATED BY DEFAULT AS IDENTITY"
	}
	if col.Default != nil {
		def += " DEFAULT " + d.DefaultValue(col)
	}
	return def
}

// DefaultValue stores CURRENT_TIMESTAMP as UTC wall time, since the column
// has no zone and the session TimeZone may be anything. The function form
// reads back the same from pg_get_expr on every server version.
func (Postgres) DefaultValue(col schema.Column) string {
	if col.Default.Expr == schema.CurrentTimestamp {
		return "timezone('utc', now())"
	}
	if col.Kind == schema.KindString {
		return quoteString(col.Default.Value)
	}
	return col.Default.Value
}
