package engine

import "context"

// Column identifies one column of a table. Type is the engine-native type
// name and is carried as an opaque string.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ColumnSummary holds per-column summary statistics. Min and Max are nil
// for types the engine cannot order. ApproxUnique is an engine-provided
// approximation, not an exact distinct count.
type ColumnSummary struct {
	Column       string `json:"column"`
	Type         string `json:"type"`
	Min          any    `json:"min"`
	Max          any    `json:"max"`
	ApproxUnique int64  `json:"approx_unique"`
	Count        int64  `json:"count"`
}

// ValueCount is one entry of a grouped-count profile, ordered by Count
// descending by the engine.
type ValueCount struct {
	Value any   `json:"value"`
	Count int64 `json:"count"`
}

// Result is one query execution's output. It is produced fresh per
// execution and never mutated afterwards.
type Result struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// Engine is the query execution surface of the embedded analytical
// database. SQL handed to Execute is treated as an opaque string; a failed
// execution returns the engine's error text and that text is the only
// validation this system performs on model-authored SQL.
type Engine interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeColumns(ctx context.Context, table string) ([]Column, error)
	SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error)
	Summarize(ctx context.Context, table string) ([]ColumnSummary, error)
	Execute(ctx context.Context, sql string) (Result, error)
	GroupedCount(ctx context.Context, table, column string, limit int) ([]ValueCount, error)
}

// Importer is implemented by engines that can load CSV files into new
// tables. Kept separate from Engine so test fakes stay small.
type Importer interface {
	ImportCSV(ctx context.Context, path, table string) error
}
