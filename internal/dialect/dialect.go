// Package dialect renders a declared schema as DDL for a specific engine.
package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// Dialect maps logical column kinds to engine types and renders DDL
type Dialect interface {
	// Name is the engine name: postgres, mysql or sqlite
	Name() string
	Quote(ident string) string
	// Placeholder returns the bind parameter marker for the n-th argument, starting at 1
	Placeholder(n int) string
	ColumnType(col schema.Column) string
	// NormalizeType canonicalises a type name so declared and extracted types compare equal
	NormalizeType(typ string) string
	// DefaultValue renders the DEFAULT expression of a column that declares one
	DefaultValue(col schema.Column) string
	// Check returns the CHECK body enforcing the column's length, or "" when
	// the column type already enforces it.
	Check(col schema.Column) string
	// CreateTable returns the statements creating the table and its indexes.
	// Every statement is safe to run again against an existing table.
	CreateTable(t *schema.Table) []string
}

// ByName returns the dialect for an engine name
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (must be postgres, mysql or sqlite)", name)
	}
}

// Script renders every table of s in dependency order
func Script(d Dialect, s *schema.Schema) ([]string, error) {
	tables, err := s.Ordered()
	if err != nil {
		return nil, err
	}

	var stmts []string
	for i := range tables {
		stmts = append(stmts, d.CreateTable(&tables[i])...)
	}
	return stmts, nil
}

// tableParts holds the pieces shared by all dialects
type tableParts struct {
	columns     []string
	constraints []string
}

func (p tableParts) body() string {
	lines := append(append([]string{}, p.columns...), p.constraints...)
	return "(\n    " + strings.Join(lines, ",\n    ") + "\n)"
}

func quoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

func foreignKeyName(t *schema.Table, rel schema.Relation) string {
	return fmt.Sprintf("FK_%s_%s_%s", t.Name, rel.TargetTable, rel.SourceColumn)
}

func primaryKeyName(t *schema.Table) string {
	return "PK_" + t.Name
}

func foreignKeyClause(d Dialect, t *schema.Table, rel schema.Relation) string {
	clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.Quote(foreignKeyName(t, rel)),
		d.Quote(rel.SourceColumn),
		d.Quote(rel.TargetTable),
		d.Quote(rel.TargetColumn))
	if rel.OnDelete != "" {
		clause += " ON DELETE " + rel.DeleteRule()
	}
	return clause
}

func createIndex(d Dialect, t *schema.Table, idx schema.Index) string {
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, d.Quote(idx.Name), d.Quote(t.Name), quoteList(d, idx.Columns))
}

// notNull reports whether the rendered column carries NOT NULL
func notNull(t *schema.Table, col schema.Column) bool {
	return !col.Nullable || t.IsKey(col.Name)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func normalize(typ string) string {
	return strings.ToLower(strings.Join(strings.Fields(typ), ""))
}

// PostgreSQL decorates reported expressions with casts such as ::text or
// ::character varying.
var castSuffix = regexp.MustCompile(`::[a-z_]+(\(\d+(,\d+)?\))?`)

// NormalizeExpr canonicalises a default or CHECK expression as written in
// DDL or as reported by an engine. Whitespace, case, casts and wrapping
// parentheses are dropped and a lone string literal is unquoted, so
// '9.90', (9.90) and 9.90 all become 9.90.
func NormalizeExpr(expr string) string {
	e := castSuffix.ReplaceAllString(normalize(expr), "")
	for wrapped(e) {
		e = e[1 : len(e)-1]
	}
	if lit, ok := unquote(e); ok {
		return lit
	}
	return e
}

// wrapped reports whether e is enclosed in one pair of matching parentheses
func wrapped(e string) bool {
	if len(e) < 2 || e[0] != '(' || e[len(e)-1] != ')' {
		return false
	}
	depth := 0
	for i, r := range e {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i < len(e)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func unquote(e string) (string, bool) {
	if len(e) < 2 || e[0] != '\'' || e[len(e)-1] != '\'' {
		return "", false
	}
	body := e[1 : len(e)-1]
	if strings.Contains(strings.ReplaceAll(body, "''", ""), "'") {
		return "", false
	}
	return strings.ReplaceAll(body, "''", "'"), true
}
