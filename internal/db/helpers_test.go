package db

import (
	"testing"

	"github.com/HitTheRhythm/movieshop/internal/schema"
)

// verifyTablesExist checks that the schema holds exactly the expected tables, in order
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Fatalf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	for i, tableName := range expectedTables {
		if s.Tables[i].Name != tableName {
			t.Errorf("Expected table %s at position %d, got %s", tableName, i, s.Tables[i].Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key, in order
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if len(table.PrimaryKey) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
		return
	}

	for i, pk := range expectedPK {
		if table.PrimaryKey[i] != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
			return
		}
	}
}

// verifyForeignKey checks that a foreign key relationship exists
func verifyForeignKey(t *testing.T, s *schema.Schema, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, rel := range table.Relations {
		if rel.TargetTable == targetTable && rel.SourceColumn == sourceColumn {
			return
		}
	}

	t.Errorf("Expected foreign key relationship from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyIndex checks that an index exists with the expected columns
func verifyIndex(t *testing.T, s *schema.Schema, tableName, indexName string, expectedColumns []string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, idx := range table.Indexes {
		if idx.Name != indexName {
			continue
		}
		if len(idx.Columns) != len(expectedColumns) {
			t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
			return
		}
		for i, col := range expectedColumns {
			if idx.Columns[i] != col {
				t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
				return
			}
		}
		return
	}

	t.Errorf("Expected index %s on %s table not found", indexName, tableName)
}
