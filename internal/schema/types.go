package schema

import "strings"

// Schema represents a complete database schema
type Schema struct {
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name       string
	Columns    []Column
	Relations  []Relation
	Indexes    []Index
	PrimaryKey []string

	// Ignored lists entity fields that are never persisted.
	Ignored []string
}

// Kind is the logical storage type of a column. Dialects map it to a
// concrete SQL type.
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindBool
	KindString
	KindDecimal
	KindTimestamp
	KindUUID
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindInt:       "int",
	KindBool:      "bool",
	KindString:    "string",
	KindDecimal:   "decimal",
	KindTimestamp: "timestamp",
	KindUUID:      "uuid",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Column represents a table column.
//
// Declared columns carry Kind and its facets. Columns read back from a live
// database only carry Type, the engine's own type name.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	IsUnique bool

	Kind      Kind
	MaxLength int // 0 means unbounded
	Precision int
	Scale     int
	Identity  bool
	Default   *Default

	// DefaultValue is the raw default as reported by an extractor.
	DefaultValue *string
	// CheckConstraint is the body of a single-column CHECK read back from
	// the database, without the CHECK keyword.
	CheckConstraint *string
}

// HasDefault reports whether the column gets a value when an insert omits it.
func (c Column) HasDefault() bool {
	return c.Default != nil || c.DefaultValue != nil
}

// Expr is a default computed by the storage engine at insert time.
type Expr int

const (
	NoExpr Expr = iota
	CurrentTimestamp
)

// Default is either a literal value or a server-side expression.
type Default struct {
	Value string
	Expr  Expr
}

// Relation represents a foreign key relationship
type Relation struct {
	TargetTable  string
	TargetColumn string
	SourceColumn string
	Cardinality  string // 1:1, 1:N, N:1
	// OnDelete is the referential action, such as CASCADE. Empty means NO ACTION.
	OnDelete string
}

// DeleteRule returns OnDelete in the upper-case form engines report.
func (r Relation) DeleteRule() string {
	if r.OnDelete == "" {
		return "NO ACTION"
	}
	return strings.ToUpper(r.OnDelete)
}

// Index represents a database index
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}
