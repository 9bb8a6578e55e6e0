package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the schema to multiple files
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if f.OutputFormat != formatMarkdown && f.OutputFormat != formatText {
		return fmt.Errorf("unsupported format: %s", f.OutputFormat)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(s); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for i := range s.Tables {
		table := &s.Tables[i]
		if err := f.writeTableFile(table, s); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(s *schema.Schema) error {
	filename := filepath.Join(f.OutputDir, "_overview"+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == formatMarkdown {
		f.writeMarkdownOverview(file, s)
	} else {
		f.writeTextOverview(file, s)
	}
	return file.Close()
}

func (f *MultiFileFormatter) writeMarkdownOverview(w io.Writer, s *schema.Schema) {
	_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
	_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", f.getFileExtension())
	_, _ = fmt.Fprintf(w, "## Tables\n\n")

	for _, table := range sortedTables(s) {
		_, _ = fmt.Fprintf(w, "- **%s**", table.Name)
		if targets := relationTargets(table); len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
}

func (f *MultiFileFormatter) writeTextOverview(w io.Writer, s *schema.Schema) {
	_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW\n")
	_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", f.getFileExtension())

	for _, table := range sortedTables(s) {
		_, _ = fmt.Fprintf(w, "%s", table.Name)
		if targets := relationTargets(table); len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ","))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(table *schema.Table, s *schema.Schema) error {
	filename := filepath.Join(f.OutputDir, table.Name+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	incomingRels := f.findIncomingRelations(table.Name, s)

	if f.OutputFormat == formatMarkdown {
		if err := NewMarkdownFormatter(file).FormatTable(table); err != nil {
			return err
		}
		if len(incomingRels) > 0 {
			_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
			for _, rel := range incomingRels {
				_, _ = fmt.Fprintf(file, "- %s.%s → %s (%s)\n",
					rel.SourceTable, rel.SourceColumn,
					rel.TargetColumn,
					FormatCardinality(rel.Cardinality, rel.SourceTable, rel.TargetTable))
			}
			_, _ = fmt.Fprintln(file)
		}
	} else {
		if err := NewTextFormatter(file).formatTable(table); err != nil {
			return err
		}
		if len(incomingRels) > 0 {
			_, _ = fmt.Fprintln(file)
			_, _ = fmt.Fprintln(file, "  REFERENCED BY:")
			for _, rel := range incomingRels {
				_, _ = fmt.Fprintf(file, "    %s.%s → %s (%s)\n",
					rel.SourceTable, rel.SourceColumn, rel.TargetColumn, rel.Cardinality)
			}
		}
	}

	return file.Close()
}

// IncomingRelation represents a relationship pointing to this table
type IncomingRelation struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	Cardinality  string
}

// findIncomingRelations finds all foreign keys pointing to this table
func (f *MultiFileFormatter) findIncomingRelations(tableName string, s *schema.Schema) []IncomingRelation {
	var incoming []IncomingRelation

	for _, table := range s.Tables {
		for _, rel := range table.Relations {
			if rel.TargetTable == tableName {
				incoming = append(incoming, IncomingRelation{
					SourceTable:  table.Name,
					SourceColumn: rel.SourceColumn,
					TargetTable:  rel.TargetTable,
					TargetColumn: rel.TargetColumn,
					Cardinality:  rel.Cardinality,
				})
			}
		}
	}

	return incoming
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}

func sortedTables(s *schema.Schema) []schema.Table {
	tables := make([]schema.Table, len(s.Tables))
	copy(tables, s.Tables)
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
	return tables
}

// relationTargets lists the referenced tables once each, in declaration order
func relationTargets(table schema.Table) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, rel := range table.Relations {
		if !seen[rel.TargetTable] {
			seen[rel.TargetTable] = true
			targets = append(targets, rel.TargetTable)
		}
	}
	return targets
}
