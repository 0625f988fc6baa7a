package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/duckchat/duckchat/internal/engine"
)

// resultRow is the parquet shape for one result row. Result sets have
// dynamic columns, so each row travels as a JSON document alongside the
// shared column listing.
type resultRow struct {
	RowIndex    int64  `parquet:"row_index"`
	ColumnsJSON string `parquet:"columns_json"`
	RowJSON     string `parquet:"row_json"`
}

// EncodeResult renders a query result as parquet bytes for download.
// Values inside the result are already JSON-safe, so oversized integers
// stay decimal strings in the encoded rows.
func EncodeResult(result engine.Result) ([]byte, error) {
	columnsJSON, err := json.Marshal(result.Columns)
	if err != nil {
		return nil, fmt.Errorf("marshal result columns: %w", err)
	}

	rows := make([]resultRow, 0, len(result.Rows))
	for index, row := range result.Rows {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("marshal result row %d: %w", index, err)
		}
		rows = append(rows, resultRow{
			RowIndex:    int64(index),
			ColumnsJSON: string(columnsJSON),
			RowJSON:     string(rowJSON),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[resultRow](buf)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
