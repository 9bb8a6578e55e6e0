// Package formatter renders a schema for people: compact text, markdown,
// or one file per table.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.formatTable(&s.Tables[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(table *schema.Table) error {
	// Table header with primary key
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(table, col))
	}

	if len(table.Ignored) > 0 {
		_, _ = fmt.Fprintf(f.writer, "  NOT PERSISTED: %s\n", strings.Join(table.Ignored, ", "))
	}

	if len(table.Relations) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range table.Relations {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s (%s)\n", rel.SourceColumn, rel.TargetTable, rel.TargetColumn, rel.Cardinality)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}

	return nil
}

func (f *TextFormatter) formatColumn(table *schema.Table, col schema.Column) string {
	parts := []string{col.Name + ":", TypeName(col)}

	if col.Identity {
		parts = append(parts, "IDENTITY")
	}
	if col.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	if !col.Nullable || table.IsKey(col.Name) {
		parts = append(parts, "NOT NULL")
	}
	if def, ok := DefaultString(col); ok {
		parts = append(parts, "DEFAULT "+def)
	}

	return strings.Join(parts, " ")
}

// TypeName returns the column's type. Extracted columns keep the engine's
// spelling; declared columns are described by kind, length and precision.
func TypeName(col schema.Column) string {
	if col.Type != "" {
		return col.Type
	}

	switch col.Kind {
	case schema.KindString:
		if col.MaxLength > 0 {
			return fmt.Sprintf("string(%d)", col.MaxLength)
		}
		return "string"
	case schema.KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", col.Precision, col.Scale)
	default:
		return col.Kind.String()
	}
}

// DefaultString returns the column default as written in DDL
func DefaultString(col schema.Column) (string, bool) {
	switch {
	case col.Default != nil && col.Default.Expr == schema.CurrentTimestamp:
		return "CURRENT_TIMESTAMP", true
	case col.Default != nil:
		return col.Default.Value, true
	case col.DefaultValue != nil:
		return *col.DefaultValue, true
	}
	return "", false
}
