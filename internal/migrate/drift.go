package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/dialect"
	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/shopspring/decimal"
)

// ErrSchemaDrift means the live database does not match the declaration.
// It stays fatal until the database is reconciled.
var ErrSchemaDrift = errors.New("schema drift")

// DriftKind classifies a single difference
type DriftKind string

const (
	MissingTable        DriftKind = "missing table"
	MissingColumn       DriftKind = "missing column"
	UnexpectedColumn    DriftKind = "unexpected column"
	PersistedField      DriftKind = "not-persisted field stored"
	TypeMismatch        DriftKind = "type mismatch"
	NullabilityMismatch DriftKind = "nullability mismatch"
	DefaultMismatch     DriftKind = "default mismatch"
	CheckMismatch       DriftKind = "length check mismatch"
	PrimaryKeyMismatch  DriftKind = "primary key mismatch"
	MissingRelation     DriftKind = "missing foreign key"
	DeleteRuleMismatch  DriftKind = "delete rule mismatch"
	MissingIndex        DriftKind = "missing index"
)

// Drift is one difference between the declared and the live schema
type Drift struct {
	Kind   DriftKind
	Table  string
	Column string
	Want   string
	Got    string
}

func (d Drift) String() string {
	target := d.Table
	if d.Column != "" {
		target += "." + d.Column
	}
	if d.Want == "" && d.Got == "" {
		return fmt.Sprintf("%s: %s", target, d.Kind)
	}
	return fmt.Sprintf("%s: %s (want %s, got %s)", target, d.Kind, d.Want, d.Got)
}

// Diff compares the declared schema with the extracted one. Tables that
// exist only in the database are not reported.
func Diff(declared, actual *schema.Schema, d dialect.Dialect) []Drift {
	var drifts []Drift

	for i := range declared.Tables {
		want := &declared.Tables[i]
		got := actual.Table(want.Name)
		if got == nil {
			drifts = append(drifts, Drift{Kind: MissingTable, Table: want.Name})
			continue
		}
		drifts = append(drifts, diffTable(want, got, d)...)
	}

	return drifts
}

func diffTable(want, got *schema.Table, d dialect.Dialect) []Drift {
	var drifts []Drift

	for _, col := range want.Columns {
		actual := got.Column(col.Name)
		if actual == nil {
			drifts = append(drifts, Drift{Kind: MissingColumn, Table: want.Name, Column: col.Name})
			continue
		}

		wantType := d.NormalizeType(d.ColumnType(col))
		if gotType := d.NormalizeType(actual.Type); gotType != wantType {
			drifts = append(drifts, Drift{Kind: TypeMismatch, Table: want.Name, Column: col.Name, Want: wantType, Got: gotType})
		}

		wantNullable := col.Nullable && !want.IsKey(col.Name)
		if actual.Nullable != wantNullable {
			drifts = append(drifts, Drift{
				Kind: NullabilityMismatch, Table: want.Name, Column: col.Name,
				Want: nullability(wantNullable), Got: nullability(actual.Nullable),
			})
		}

		if wantDefault, gotDefault, ok := sameDefault(col, *actual, d); !ok {
			drifts = append(drifts, Drift{
				Kind: DefaultMismatch, Table: want.Name, Column: col.Name,
				Want: wantDefault, Got: gotDefault,
			})
		}

		wantCheck, gotCheck := d.Check(col), ""
		if actual.CheckConstraint != nil {
			gotCheck = *actual.CheckConstraint
		}
		if dialect.NormalizeExpr(wantCheck) != dialect.NormalizeExpr(gotCheck) {
			drifts = append(drifts, Drift{
				Kind: CheckMismatch, Table: want.Name, Column: col.Name,
				Want: describeCheck(wantCheck), Got: describeCheck(gotCheck),
			})
		}
	}

	for _, col := range got.Columns {
		if want.Column(col.Name) != nil {
			continue
		}
		kind := UnexpectedColumn
		if want.IsIgnored(col.Name) {
			kind = PersistedField
		}
		drifts = append(drifts, Drift{Kind: kind, Table: want.Name, Column: col.Name})
	}

	if !equalOrdered(want.PrimaryKey, got.PrimaryKey) {
		drifts = append(drifts, Drift{
			Kind: PrimaryKeyMismatch, Table: want.Name,
			Want: "(" + strings.Join(want.PrimaryKey, ", ") + ")",
			Got:  "(" + strings.Join(got.PrimaryKey, ", ") + ")",
		})
	}

	for _, rel := range want.Relations {
		actual := findRelation(got, rel)
		if actual == nil {
			drifts = append(drifts, Drift{
				Kind: MissingRelation, Table: want.Name, Column: rel.SourceColumn,
				Want: rel.TargetTable + "." + rel.TargetColumn,
			})
			continue
		}
		if actual.DeleteRule() != rel.DeleteRule() {
			drifts = append(drifts, Drift{
				Kind: DeleteRuleMismatch, Table: want.Name, Column: rel.SourceColumn,
				Want: rel.DeleteRule(), Got: actual.DeleteRule(),
			})
		}
	}

	for _, idx := range want.Indexes {
		if !hasIndex(got, idx) {
			drifts = append(drifts, Drift{
				Kind: MissingIndex, Table: want.Name,
				Want: idx.Name + " (" + strings.Join(idx.Columns, ", ") + ")",
			})
		}
	}

	return drifts
}

// sameDefault compares the declared default with the one the engine reports.
// Decimal literals compare by value, since engines pad them to the column scale.
func sameDefault(col, actual schema.Column, d dialect.Dialect) (want, got string, ok bool) {
	want, got = "no default", "no default"
	if col.Default != nil {
		want = dialect.NormalizeExpr(d.DefaultValue(col))
	}
	if actual.DefaultValue != nil {
		got = dialect.NormalizeExpr(*actual.DefaultValue)
	}
	if col.Default == nil || actual.DefaultValue == nil {
		return want, got, col.HasDefault() == actual.HasDefault()
	}

	if col.Kind == schema.KindDecimal {
		w, werr := decimal.NewFromString(want)
		g, gerr := decimal.NewFromString(got)
		if werr == nil && gerr == nil {
			return want, got, w.Equal(g)
		}
	}
	return want, got, want == got
}

func findRelation(t *schema.Table, rel schema.Relation) *schema.Relation {
	for i, r := range t.Relations {
		if r.SourceColumn == rel.SourceColumn && r.TargetTable == rel.TargetTable && r.TargetColumn == rel.TargetColumn {
			return &t.Relations[i]
		}
	}
	return nil
}

func hasIndex(t *schema.Table, idx schema.Index) bool {
	for _, i := range t.Indexes {
		if i.Name == idx.Name && i.IsUnique == idx.IsUnique && equalOrdered(i.Columns, idx.Columns) {
			return true
		}
	}
	return false
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func describeCheck(check string) string {
	if check == "" {
		return "no check"
	}
	return check
}
