package schema

import (
	"fmt"
	"sort"
)

// Table returns the table with the given name, or nil
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsIgnored reports whether name is a field that must never be persisted
func (t *Table) IsIgnored(name string) bool {
	for _, n := range t.Ignored {
		if n == name {
			return true
		}
	}
	return false
}

// IsKey reports whether the column is part of the primary key
func (t *Table) IsKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// HasCompositeKey reports whether the primary key spans more than one column
func (t *Table) HasCompositeKey() bool {
	return len(t.PrimaryKey) > 1
}

// Ordered returns the tables so that every table comes after the tables it
// references. Ties keep declaration order.
func (s *Schema) Ordered() ([]Table, error) {
	index := make(map[string]int, len(s.Tables))
	for i, t := range s.Tables {
		index[t.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(s.Tables))
	ordered := make([]Table, 0, len(s.Tables))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("relation cycle through table %s", s.Tables[i].Name)
		}
		state[i] = visiting

		targets := make([]int, 0, len(s.Tables[i].Relations))
		for _, rel := range s.Tables[i].Relations {
			j, ok := index[rel.TargetTable]
			if !ok || j == i {
				continue
			}
			targets = append(targets, j)
		}
		sort.Ints(targets)
		for _, j := range targets {
			if err := visit(j); err != nil {
				return err
			}
		}

		state[i] = done
		ordered = append(ordered, s.Tables[i])
		return nil
	}

	for i := range s.Tables {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
