// Package schema reflects a live relational database into an immutable,
// dialect-agnostic description and caches it behind an atomic snapshot.
package schema

import (
	"sort"
	"time"
)

// RowCountUnknown marks a table whose COUNT(*) probe failed or timed out.
// Zero is a valid observed count and must not be confused with failure.
const RowCountUnknown int64 = -1

// Column describes a single column as reported by the engine.
type Column struct {
	Name         string `json:"name"`
	DeclaredType string `json:"type"`
	PrimaryKey   bool   `json:"primary_key"`
	Nullable     bool   `json:"nullable"`
}

// ForeignKey is a (local column, referenced table, referenced column) triple.
type ForeignKey struct {
	LocalColumn      string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Table holds everything reflected about one table. Columns keep the
// engine's declaration order; it matters only for display.
type Table struct {
	Columns     []Column            `json:"columns"`
	ForeignKeys []ForeignKey        `json:"foreign_keys,omitempty"`
	SampleRows  []map[string]string `json:"sample_rows,omitempty"`
	ApproxRows  int64               `json:"approx_rows"`
}

// Description is a complete snapshot of a database's structure. It is
// immutable once published: refresh builds a new one and swaps the pointer.
type Description struct {
	Dialect     string            `json:"dialect"`
	Tables      map[string]*Table `json:"tables"`
	RefreshedAt time.Time         `json:"refreshed_at"`
}

// TableNames returns the table names in sorted order. Formatting and
// diagnostics both need a stable iteration order.
func (d *Description) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Identifiers returns every table and column name in the snapshot.
// The sanitizer's restricted-mode tests use it to assert nothing leaks.
func (d *Description) Identifiers() []string {
	var ids []string
	for _, name := range d.TableNames() {
		ids = append(ids, name)
		for _, col := range d.Tables[name].Columns {
			ids = append(ids, col.Name)
		}
	}
	return ids
}

// HasColumn reports whether any table declares the given column name.
// Used for richer server-side diagnostics, never for safety decisions.
func (d *Description) HasColumn(name string) bool {
	for _, t := range d.Tables {
		for _, col := range t.Columns {
			if col.Name == name {
				return true
			}
		}
	}
	return false
}

// Equal compares the structural parts of two snapshots: dialect, table
// names, columns and foreign keys. Sample rows and approximate counts are
// excluded, they may legitimately differ between two reflection passes.
func (d *Description) Equal(other *Description) bool {
	if d.Dialect != other.Dialect || len(d.Tables) != len(other.Tables) {
		return false
	}
	for name, t := range d.Tables {
		o, ok := other.Tables[name]
		if !ok || len(t.Columns) != len(o.Columns) || len(t.ForeignKeys) != len(o.ForeignKeys) {
			return false
		}
		for i, col := range t.Columns {
			if col != o.Columns[i] {
				return false
			}
		}
		fks := make(map[ForeignKey]bool, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			fks[fk] = true
		}
		for _, fk := range o.ForeignKeys {
			if !fks[fk] {
				return false
			}
		}
	}
	return true
}
