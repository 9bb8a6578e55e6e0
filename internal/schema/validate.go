package schema

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrOutOfRange is returned by CheckDecimal for values the column cannot hold exactly.
var ErrOutOfRange = errors.New("decimal out of range")

// Validate checks the declaration for structural mistakes. All problems are
// reported together.
func Validate(s *Schema) error {
	var errs []error

	seenTables := make(map[string]bool)
	for _, t := range s.Tables {
		if seenTables[t.Name] {
			errs = append(errs, fmt.Errorf("table %s declared twice", t.Name))
		}
		seenTables[t.Name] = true

		errs = append(errs, validateTable(s, &t)...)
	}

	return errors.Join(errs...)
}

func validateTable(s *Schema, t *Table) []error {
	var errs []error

	if len(t.PrimaryKey) == 0 {
		errs = append(errs, fmt.Errorf("table %s: no primary key", t.Name))
	}

	seen := make(map[string]bool)
	for _, col := range t.Columns {
		if seen[col.Name] {
			errs = append(errs, fmt.Errorf("table %s: column %s declared twice", t.Name, col.Name))
		}
		seen[col.Name] = true

		if col.Kind == KindUnknown {
			errs = append(errs, fmt.Errorf("table %s: column %s has no kind", t.Name, col.Name))
		}
		if col.Kind == KindDecimal && (col.Precision <= 0 || col.Scale < 0 || col.Scale > col.Precision) {
			errs = append(errs, fmt.Errorf("table %s: column %s: invalid decimal(%d,%d)", t.Name, col.Name, col.Precision, col.Scale))
		}
		if col.Identity && col.Kind != KindInt {
			errs = append(errs, fmt.Errorf("table %s: identity column %s must be int", t.Name, col.Name))
		}
		if col.Default != nil && col.Default.Expr == NoExpr && col.Kind == KindDecimal {
			if _, err := decimal.NewFromString(col.Default.Value); err != nil {
				errs = append(errs, fmt.Errorf("table %s: column %s: invalid default %q", t.Name, col.Name, col.Default.Value))
			}
		}
	}

	for _, pk := range t.PrimaryKey {
		col := t.Column(pk)
		if col == nil {
			errs = append(errs, fmt.Errorf("table %s: primary key column %s does not exist", t.Name, pk))
			continue
		}
		if col.Nullable {
			errs = append(errs, fmt.Errorf("table %s: primary key column %s is nullable", t.Name, pk))
		}
	}

	for _, name := range t.Ignored {
		if seen[name] {
			errs = append(errs, fmt.Errorf("table %s: %s is both a column and not persisted", t.Name, name))
		}
	}

	for _, rel := range t.Relations {
		if t.Column(rel.SourceColumn) == nil {
			errs = append(errs, fmt.Errorf("table %s: relation column %s does not exist", t.Name, rel.SourceColumn))
		}
		target := s.Table(rel.TargetTable)
		if target == nil {
			errs = append(errs, fmt.Errorf("table %s: relation target %s does not exist", t.Name, rel.TargetTable))
			continue
		}
		if target.Column(rel.TargetColumn) == nil {
			errs = append(errs, fmt.Errorf("table %s: relation target %s.%s does not exist", t.Name, rel.TargetTable, rel.TargetColumn))
		}
	}

	for _, idx := range t.Indexes {
		for _, c := range idx.Columns {
			if t.Column(c) == nil {
				errs = append(errs, fmt.Errorf("table %s: index %s column %s does not exist", t.Name, idx.Name, c))
			}
		}
	}

	return errs
}

// CheckDecimal returns ErrOutOfRange when d has more fractional digits than
// the column scale or more integer digits than precision minus scale.
func (c Column) CheckDecimal(d decimal.Decimal) error {
	if c.Kind != KindDecimal {
		return nil
	}

	if !d.Equal(d.Truncate(int32(c.Scale))) {
		return fmt.Errorf("%w: %s has more than %d fractional digits", ErrOutOfRange, d.String(), c.Scale)
	}

	limit := decimal.New(1, int32(c.Precision-c.Scale))
	if d.Abs().GreaterThanOrEqual(limit) {
		return fmt.Errorf("%w: %s does not fit decimal(%d,%d)", ErrOutOfRange, d.String(), c.Precision, c.Scale)
	}

	return nil
}
