package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"event_id", "user_id", "session_id", "event_type",
	"amount", "currency", "country", "device", "occurred_at",
}

// WriteCSV renders count generated events as a CSV document suitable for
// the engine's CSV import.
func WriteCSV(w io.Writer, generator *Generator, count int) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := 0; i < count; i++ {
		event := generator.Next()
		record := []string{
			strconv.FormatInt(event.EventID, 10),
			event.UserID,
			event.SessionID,
			event.EventType,
			strconv.FormatFloat(event.Amount, 'f', 2, 64),
			event.Currency,
			event.Country,
			event.Device,
			event.OccurredAt.Format(time.RFC3339Nano),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
