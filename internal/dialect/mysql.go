package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// MySQL renders DDL for MySQL 8 (InnoDB, utf8mb4)
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) ColumnType(col schema.Column) string {
	switch col.Kind {
	case schema.KindInt:
		return "int"
	case schema.KindBool:
		return "tinyint(1)"
	case schema.KindString:
		if col.MaxLength > 0 {
			return fmt.Sprintf("varchar(%d)", col.MaxLength)
		}
		return "longtext"
	case schema.KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", col.Precision, col.Scale)
	case schema.KindTimestamp:
		return "datetime(6)"
	case schema.KindUUID:
		return "char(36)"
	default:
		return "longtext"
	}
}

// Servers before 8.0.19 report integer display widths such as int(11).
var mysqlDisplayWidth = regexp.MustCompile(`^(smallint|mediumint|int|bigint)\(\d+\)`)

// Check is empty: varchar rejects over-length values under the strict
// sql_mode that MySQLDSN sets.
func (MySQL) Check(schema.Column) string { return "" }

func (MySQL) NormalizeType(typ string) string {
	return mysqlDisplayWidth.ReplaceAllString(normalize(typ), "$1")
}

// CreateTable renders indexes inline; MySQL has no CREATE INDEX IF NOT EXISTS.
func (d MySQL) CreateTable(t *schema.Table) []string {
	var parts tableParts
	for _, col := range t.Columns {
		parts.columns = append(parts.columns, d.columnDef(t, col))
	}

	parts.constraints = append(parts.constraints, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(d, t.PrimaryKey)))
	for _, idx := range t.Indexes {
		kind := "KEY"
		if idx.IsUnique {
			kind = "UNIQUE KEY"
		}
		parts.constraints = append(parts.constraints,
			fmt.Sprintf("%s %s (%s)", kind, d.Quote(idx.Name), quoteList(d, idx.Columns)))
	}
	for _, rel := range t.Relations {
		parts.constraints = append(parts.constraints, foreignKeyClause(d, t, rel))
	}

	return []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		d.Quote(t.Name), parts.body())}
}

func (d MySQL) columnDef(t *schema.Table, col schema.Column) string {
	def := d.Quote(col.Name) + " " + d.ColumnType(col)
	if notNull(t, col) {
		def += " NOT NULL"
	}
	if col.Identity {
		def += " AUTO_INCREMENT"
	}
	if col.Default != nil {
		def += " DEFAULT " + d.DefaultValue(col)
	}
	return def
}

// DefaultValue uses an expression default (8.0.13+) so CURRENT_TIMESTAMP is
// UTC regardless of the session time_zone.
func (MySQL) DefaultValue(col schema.Column) string {
	if col.Default.Expr == schema.CurrentTimestamp {
		return "(UTC_TIMESTAMP(6))"
	}
	if col.Kind == schema.KindString {
		return quoteString(col.Default.Value)
	}
	return col.Default.Value
}
