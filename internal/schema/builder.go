package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/duckchat/duckchat/internal/engine"
)

// ErrRefreshInFlight is returned when Refresh is called while another
// refresh for the same builder is still running.
var ErrRefreshInFlight = errors.New("schema refresh already in flight")

const sampleRowLimit = 5

// Builder materializes DatabaseSnapshots from the engine and publishes the
// current one. Publication is full-replace: a refresh that errors partway
// leaves the previously published snapshot untouched.
type Builder struct {
	eng    engine.Engine
	logger *slog.Logger

	refreshing atomic.Bool

	mu      sync.RWMutex
	current DatabaseSnapshot
	ready   bool
}

func NewBuilder(eng engine.Engine, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{eng: eng, logger: logger}
}

// Current returns the published snapshot and whether any refresh has
// completed. Snapshot and readiness are read under one lock so a consumer
// never observes ready=true alongside an out-of-date snapshot.
func (b *Builder) Current() (DatabaseSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.ready
}

// Refresh rebuilds the snapshot wholesale. Only one refresh may be in
// flight; a reentrant call fails fast with ErrRefreshInFlight. On any
// per-table failure the error is logged, the previous snapshot stays
// published, and the caller may re-invoke.
func (b *Builder) Refresh(ctx context.Context) (DatabaseSnapshot, error) {
	if !b.refreshing.CompareAndSwap(false, true) {
		return DatabaseSnapshot{}, ErrRefreshInFlight
	}
	defer b.refreshing.Store(false)

	snapshot, err := b.build(ctx)
	if err != nil {
		b.logger.Warn("schema refresh failed, keeping previous snapshot", slog.Any("error", err))
		return DatabaseSnapshot{}, err
	}

	b.mu.Lock()
	b.current = snapshot
	b.ready = true
	b.mu.Unlock()

	b.logger.Info("schema snapshot published", slog.Int("tables", snapshot.Len()))
	return snapshot, nil
}

func (b *Builder) build(ctx context.Context) (DatabaseSnapshot, error) {
	names, err := b.eng.ListTables(ctx)
	if err != nil {
		return DatabaseSnapshot{}, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]TableSnapshot, 0, len(names))
	for _, name := range names {
		table, err := b.buildTable(ctx, name)
		if err != nil {
			return DatabaseSnapshot{}, fmt.Errorf("snapshot table %q: %w", name, err)
		}
		tables = append(tables, table)
	}
	return NewDatabaseSnapshot(tables), nil
}

func (b *Builder) buildTable(ctx context.Context, name string) (TableSnapshot, error) {
	rawColumns, err := b.eng.DescribeColumns(ctx, name)
	if err != nil {
		return TableSnapshot{}, fmt.Errorf("describe columns: %w", err)
	}
	columns := make([]ColumnDescriptor, 0, len(rawColumns))
	for _, column := range rawColumns {
		columns = append(columns, ColumnDescriptor{Name: column.Name, Type: column.Type})
	}

	samples, err := b.eng.SampleRows(ctx, name, sampleRowLimit)
	if err != nil {
		return TableSnapshot{}, fmt.Errorf("sample rows: %w", err)
	}
	for _, row := range samples {
		engine.SafeRow(row)
	}

	summaries, err := b.eng.Summarize(ctx, name)
	if err != nil {
		return TableSnapshot{}, fmt.Errorf("summarize: %w", err)
	}
	stats := make([]ColumnStatistic, 0, len(summaries))
	for _, summary := range summaries {
		stats = append(stats, statisticFromSummary(summary))
	}

	return TableSnapshot{Name: name, Columns: columns, Samples: samples, Stats: stats}, nil
}
