package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for i := range s.Tables {
		if err := f.FormatTable(&s.Tables[i]); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table *schema.Table) error {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	f.FormatColumns(f.writer, table)
	f.FormatRelations(f.writer, table.Relations)
	f.formatIndexes(f.writer, table.Indexes)

	return nil
}

// FormatColumns writes the column list and the fields that are not persisted
func (f *MarkdownFormatter) FormatColumns(w io.Writer, table *schema.Table) {
	_, _ = fmt.Fprintln(w, "### Columns")
	_, _ = fmt.Fprintln(w)

	for _, col := range table.Columns {
		constraintStr := f.formatConstraints(table, col)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(w, "- **%s:** %s, %s\n", col.Name, TypeName(col), constraintStr)
		} else {
			_, _ = fmt.Fprintf(w, "- **%s:** %s\n", col.Name, TypeName(col))
		}
	}
	_, _ = fmt.Fprintln(w)

	if len(table.Ignored) > 0 {
		_, _ = fmt.Fprintln(w, "### Not persisted")
		_, _ = fmt.Fprintln(w)
		for _, name := range table.Ignored {
			_, _ = fmt.Fprintf(w, "- %s\n", name)
		}
		_, _ = fmt.Fprintln(w)
	}
}

// FormatRelations writes the outgoing foreign keys
func (f *MarkdownFormatter) FormatRelations(w io.Writer, relations []schema.Relation) {
	if len(relations) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "### References")
	_, _ = fmt.Fprintln(w)
	for _, rel := range relations {
		_, _ = fmt.Fprintf(w, "- %s → %s.%s (%s)\n",
			rel.SourceColumn,
			rel.TargetTable,
			rel.TargetColumn,
			rel.Cardinality)
	}
	_, _ = fmt.Fprintln(w)
}

func (f *MarkdownFormatter) formatIndexes(w io.Writer, indexes []schema.Index) {
	if len(indexes) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "### Idx")
	_, _ = fmt.Fprintln(w)
	for _, idx := range indexes {
		if idx.IsUnique {
			_, _ = fmt.Fprintf(w, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
		} else {
			_, _ = fmt.Fprintf(w, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
		}
	}
	_, _ = fmt.Fprintln(w)
}

func (f *MarkdownFormatter) formatConstraints(table *schema.Table, col schema.Column) string {
	var constraints []string

	if table.IsKey(col.Name) {
		constraints = append(constraints, "PK")
	}
	if col.Identity {
		constraints = append(constraints, "IDENTITY")
	}
	if col.IsUnique {
		constraints = append(constraints, "UNIQUE")
	}
	if !col.Nullable || table.IsKey(col.Name) {
		constraints = append(constraints, "NOT NULL")
	}
	if def, ok := DefaultString(col); ok {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", def))
	}
	if col.CheckConstraint != nil {
		constraints = append(constraints, fmt.Sprintf("CHECK(%s)", *col.CheckConstraint))
	}

	return strings.Join(constraints, ", ")
}

// FormatCardinality describes a relation from the referencing table's side
func FormatCardinality(cardinality, sourceTable, targetTable string) string {
	switch cardinality {
	case "N:1":
		return fmt.Sprintf("many %s per %s", sourceTable, targetTable)
	case "1:1":
		return fmt.Sprintf("one %s per %s", sourceTable, targetTable)
	default:
		return cardinality
	}
}
