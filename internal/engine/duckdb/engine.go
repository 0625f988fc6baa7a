package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/duckchat/duckchat/internal/engine"
)

// Engine implements engine.Engine on an embedded DuckDB database. An empty
// path opens an in-memory database.
type Engine struct {
	db *sql.DB
}

func Open(path string) (*Engine, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Engine{db: db}, nil
}

// New wraps an already-open database handle. Tests use this with a mock.
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// ListTables returns user tables in creation order. Ordering by the
// internal table oid keeps discovery order stable for a given database
// state, which downstream snapshot consumers rely on.
func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT table_name FROM duckdb_tables() WHERE NOT internal ORDER BY table_oid`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (e *Engine) DescribeColumns(ctx context.Context, table string) ([]engine.Column, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("describe columns for %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []engine.Column
	for rows.Next() {
		var column engine.Column
		if err := rows.Scan(&column.Name, &column.Type); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	return columns, nil
}

func (e *Engine) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 5
	}
	result, err := e.Execute(ctx, fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table), limit))
	if err != nil {
		return nil, fmt.Errorf("sample rows of %q: %w", table, err)
	}
	return result.Rows, nil
}

// Summarize runs DuckDB's SUMMARIZE over the table and extracts the subset
// of statistics the snapshot carries. The SUMMARIZE result shape has grown
// columns across DuckDB releases, so values are picked out by name rather
// than by position.
func (e *Engine) Summarize(ctx context.Context, table string) ([]engine.ColumnSummary, error) {
	result, err := e.Execute(ctx, `SUMMARIZE `+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("summarize %q: %w", table, err)
	}

	summaries := make([]engine.ColumnSummary, 0, len(result.Rows))
	for _, row := range result.Rows {
		summaries = append(summaries, engine.ColumnSummary{
			Column:       asString(row["column_name"]),
			Type:         asString(row["column_type"]),
			Min:          row["min"],
			Max:          row["max"],
			ApproxUnique: asInt64(row["approx_unique"]),
			Count:        asInt64(row["count"]),
		})
	}
	return summaries, nil
}

func (e *Engine) Execute(ctx context.Context, sqlText string) (engine.Result, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return engine.Result{}, fmt.Errorf("sql is required")
	}

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return engine.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return engine.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return engine.Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = engine.SafeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return engine.Result{}, err
	}

	return engine.Result{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

func (e *Engine) GroupedCount(ctx context.Context, table, column string, limit int) ([]engine.ValueCount, error) {
	if limit <= 0 {
		limit = 5
	}
	sqlText := fmt.Sprintf(
		`SELECT %[1]s AS value, COUNT(*) AS cnt FROM %[2]s WHERE %[1]s IS NOT NULL GROUP BY %[1]s ORDER BY cnt DESC LIMIT %[3]d`,
		quoteIdent(column), quoteIdent(table), limit,
	)
	result, err := e.Execute(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("grouped count of %q.%q: %w", table, column, err)
	}

	counts := make([]engine.ValueCount, 0, len(result.Rows))
	for _, row := range result.Rows {
		counts = append(counts, engine.ValueCount{Value: row["value"], Count: asInt64(row["cnt"])})
	}
	return counts, nil
}

// ImportCSV loads a local CSV file into a new or replaced table using
// read_csv_auto for type inference.
func (e *Engine) ImportCSV(ctx context.Context, path, table string) error {
	sqlText := fmt.Sprintf(
		`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s)`,
		quoteIdent(table), quoteString(path),
	)
	if _, err := e.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("import csv into %q: %w", table, err)
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

func asString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", typed)
	}
}

func asInt64(value any) int64 {
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case int32:
		return int64(typed)
	case uint64:
		return int64(typed)
	case float64:
		return int64(typed)
	case string:
		var parsed int64
		_, _ = fmt.Sscanf(typed, "%d", &parsed)
		return parsed
	default:
		return 0
	}
}
