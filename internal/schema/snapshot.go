package schema

import "github.com/duckchat/duckchat/internal/engine"

// ColumnDescriptor identifies one column. Type is the engine-native type
// name, never reinterpreted.
type ColumnDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ColumnStatistic is one column's summary. Min and Max are nil for
// non-orderable types; ApproxUnique is an engine approximation.
type ColumnStatistic struct {
	Column       string `json:"column"`
	Type         string `json:"type"`
	Min          any    `json:"min"`
	Max          any    `json:"max"`
	ApproxUnique int64  `json:"approx_unique"`
	Count        int64  `json:"count"`
}

// TableSnapshot is one table's structure plus a representative peek at its
// data. Samples preserve engine row order and hold only JSON-safe scalars.
type TableSnapshot struct {
	Name    string             `json:"name"`
	Columns []ColumnDescriptor `json:"columns"`
	Samples []map[string]any   `json:"samples"`
	Stats   []ColumnStatistic  `json:"stats"`
}

// DatabaseSnapshot is an immutable, insertion-ordered capture of every
// table. Order is discovery order and is load-bearing: the first table is
// the implicit subject of generic references like "the table", so the
// sequence is never resorted.
type DatabaseSnapshot struct {
	tables []TableSnapshot
	byName map[string]int
}

func NewDatabaseSnapshot(tables []TableSnapshot) DatabaseSnapshot {
	byName := make(map[string]int, len(tables))
	for i, table := range tables {
		if _, exists := byName[table.Name]; !exists {
			byName[table.Name] = i
		}
	}
	return DatabaseSnapshot{tables: tables, byName: byName}
}

func (s DatabaseSnapshot) Tables() []TableSnapshot {
	return s.tables
}

func (s DatabaseSnapshot) Table(name string) (TableSnapshot, bool) {
	index, ok := s.byName[name]
	if !ok {
		return TableSnapshot{}, false
	}
	return s.tables[index], true
}

func (s DatabaseSnapshot) Len() int {
	return len(s.tables)
}

func (s DatabaseSnapshot) IsEmpty() bool {
	return len(s.tables) == 0
}

// DefaultTable returns the first table in snapshot order. Ambiguous user
// references ("the table") resolve here; making the rule a named function
// keeps the behavior discoverable instead of an accident of iteration.
func DefaultTable(s DatabaseSnapshot) (TableSnapshot, bool) {
	if len(s.tables) == 0 {
		return TableSnapshot{}, false
	}
	return s.tables[0], true
}

func statisticFromSummary(summary engine.ColumnSummary) ColumnStatistic {
	return ColumnStatistic{
		Column:       summary.Column,
		Type:         summary.Type,
		Min:          engine.SafeValue(summary.Min),
		Max:          engine.SafeValue(summary.Max),
		ApproxUnique: summary.ApproxUnique,
		Count:        summary.Count,
	}
}
