package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/duckchat/duckchat/internal/engine"
	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
	"github.com/duckchat/duckchat/internal/storage"
)

// Refresher rebuilds the schema snapshot after an import completes.
// *schema.Builder satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) (schema.DatabaseSnapshot, error)
}

// Importer loads CSV data into the engine and refreshes the schema
// snapshot afterwards, so a completed import is always followed by a
// rebuilt snapshot.
type Importer struct {
	Engine engine.Importer
	Store  storage.ObjectStore
	Schema Refresher
	Logger *slog.Logger
}

// ImportLocal loads a CSV file from the local filesystem.
func (i *Importer) ImportLocal(ctx context.Context, path, table string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("csv path is required")
	}
	table = tableNameFor(table, path)
	if err := i.Engine.ImportCSV(ctx, path, table); err != nil {
		return err
	}
	return i.refresh(ctx, table)
}

// ImportObject downloads a CSV object to a temporary file and loads it.
// The object store is optional wiring; calling this without one is an
// error, not a panic.
func (i *Importer) ImportObject(ctx context.Context, key, table string) error {
	if i.Store == nil {
		return fmt.Errorf("object store is not configured")
	}
	reader, err := i.Store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get csv object %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	tmp, err := os.CreateTemp("", "duckchat-import-*.csv")
	if err != nil {
		return fmt.Errorf("create import temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("materialize csv object %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close import temp file: %w", err)
	}

	table = tableNameFor(table, key)
	if err := i.Engine.ImportCSV(ctx, tmpPath, table); err != nil {
		return err
	}
	return i.refresh(ctx, table)
}

func (i *Importer) refresh(ctx context.Context, table string) error {
	if i.Schema == nil {
		return nil
	}
	if _, err := i.Schema.Refresh(ctx); err != nil {
		observability.ObserveSchemaRefresh("error")
		// The table loaded; a stale snapshot is recoverable by re-running
		// the refresh, so the import itself still succeeds.
		if i.Logger != nil {
			i.Logger.Warn("post-import schema refresh failed",
				slog.String("table", table),
				slog.Any("error", err),
			)
		}
		return nil
	}
	observability.ObserveSchemaRefresh("ok")
	return nil
}

// tableNameFor derives a table name from the file or object name when the
// caller did not provide one.
func tableNameFor(table, path string) string {
	table = strings.TrimSpace(table)
	if table != "" {
		return table
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "imported"
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}
