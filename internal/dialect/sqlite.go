package dialect

import (
	"fmt"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/shopspring/decimal"
)

// SQLite renders DDL for SQLite.
//
// SQLite ignores declared lengths and has no fixed-point type, so lengths are
// enforced with CHECK constraints and decimals are stored as canonical text.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) ColumnType(col schema.Column) string {
	switch col.Kind {
	case schema.KindInt:
		return "INTEGER"
	case schema.KindBool:
		return "BOOLEAN"
	case schema.KindString:
		if col.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", col.MaxLength)
		}
		return "TEXT"
	case schema.KindDecimal:
		return "TEXT"
	case schema.KindTimestamp:
		return "DATETIME"
	case schema.KindUUID:
		return "CHAR(36)"
	default:
		return "TEXT"
	}
}

func (SQLite) NormalizeType(typ string) string { return normalize(typ) }

func (d SQLite) CreateTable(t *schema.Table) []string {
	// AUTOINCREMENT is only valid on an inline INTEGER PRIMARY KEY
	inlineKey := len(t.PrimaryKey) == 1
	if inlineKey {
		col := t.Column(t.PrimaryKey[0])
		inlineKey = col != nil && col.Identity
	}

	var parts tableParts
	for _, col := range t.Columns {
		parts.columns = append(parts.columns, d.columnDef(t, col, inlineKey))
	}

	if !inlineKey {
		parts.constraints = append(parts.constraints,
			fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", d.Quote(primaryKeyName(t)), quoteList(d, t.PrimaryKey)))
	}
	for _, rel := range t.Relations {
		parts.constraints = append(parts.constraints, foreignKeyClause(d, t, rel))
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", d.Quote(t.Name), parts.body())}
	for _, idx := range t.Indexes {
		stmts = append(stmts, createIndex(d, t, idx))
	}
	return stmts
}

func (d SQLite) columnDef(t *schema.Table, col schema.Column, inlineKey bool) string {
	def := d.Quote(col.Name) + " " + d.ColumnType(col)
	if notNull(t, col) {
		def += " NOT NULL"
	}
	if inlineKey && col.Identity {
		def += " PRIMARY KEY AUTOINCREMENT"
	}
	if col.Default != nil {
		def += " DEFAULT " + d.DefaultValue(col)
	}
	if check := d.Check(col); check != "" {
		def += " CHECK (" + check + ")"
	}
	return def
}

// Check bounds the character count. length() counts characters for text values.
func (d SQLite) Check(col schema.Column) string {
	if col.Kind != schema.KindString || col.MaxLength == 0 {
		return ""
	}
	return fmt.Sprintf("length(%s) <= %d", d.Quote(col.Name), col.MaxLength)
}

func (SQLite) DefaultValue(col schema.Column) string {
	if col.Default.Expr == schema.CurrentTimestamp {
		return "(strftime('%Y-%m-%d %H:%M:%f', 'now'))"
	}
	switch col.Kind {
	case schema.KindString:
		return quoteString(col.Default.Value)
	case schema.KindDecimal:
		return quoteString(FormatDecimal(col, decimal.RequireFromString(col.Default.Value)))
	default:
		return col.Default.Value
	}
}

// FormatDecimal renders d with exactly the column scale
func FormatDecimal(col schema.Column, d decimal.Decimal) string {
	return d.StringFixed(int32(col.Scale))
}
