package seed

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestGeneratorIsDeterministicForSeed(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewGenerator(42, 100)
	a.now = func() time.Time { return fixed }
	b := NewGenerator(42, 100)
	b.now = func() time.Time { return fixed }

	for i := 0; i < 50; i++ {
		left := a.Next()
		right := b.Next()
		if left != right {
			t.Fatalf("event %d diverged: %+v vs %+v", i, left, right)
		}
	}
}

func TestGeneratorSequencesEventIDs(t *testing.T) {
	g := NewGenerator(1, 10)
	for i := int64(1); i <= 5; i++ {
		if event := g.Next(); event.EventID != i {
			t.Fatalf("event id = %d, want %d", event.EventID, i)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, NewGenerator(7, 50), 10); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 11 {
		t.Fatalf("records = %d, want header plus 10 rows", len(records))
	}
	if records[0][0] != "event_id" || records[0][8] != "occurred_at" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "1" {
		t.Fatalf("first event id = %q", records[1][0])
	}
}
