package schema

import (
	"strings"
	"testing"
)

func twoTableSnapshot() DatabaseSnapshot {
	return NewDatabaseSnapshot([]TableSnapshot{
		{
			Name: "raw_log_entries__2_",
			Columns: []ColumnDescriptor{
				{Name: "user_id", Type: "VARCHAR"},
				{Name: "timestamp", Type: "TIMESTAMP"},
			},
			Samples: []map[string]any{{"user_id": "u-1", "timestamp": "2026-01-02 03:04:05"}},
			Stats: []ColumnStatistic{
				{Column: "user_id", Type: "VARCHAR", Min: "u-1", Max: "u-9", ApproxUnique: 4, Count: 100},
			},
		},
		{
			Name:    "orders",
			Columns: []ColumnDescriptor{{Name: "amount", Type: "DOUBLE"}},
		},
	})
}

func TestSerializeContainsEveryTableAndColumnPair(t *testing.T) {
	text := Serialize(twoTableSnapshot(), true)
	for _, want := range []string{
		"raw_log_entries__2_",
		"orders",
		"user_id (VARCHAR)",
		"timestamp (TIMESTAMP)",
		"amount (DOUBLE)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("serialized text missing %q:\n%s", want, text)
		}
	}
}

func TestSerializeWithoutDetailsOmitsSamplesAndStats(t *testing.T) {
	snapshot := twoTableSnapshot()
	detailed := Serialize(snapshot, true)
	lean := Serialize(snapshot, false)

	if !strings.Contains(detailed, `"approx_unique":4`) {
		t.Fatalf("detailed serialization missing stats JSON:\n%s", detailed)
	}
	if !strings.Contains(detailed, `"user_id":"u-1"`) {
		t.Fatalf("detailed serialization missing sample JSON:\n%s", detailed)
	}
	for _, fragment := range []string{"Sample rows:", "Statistics:", `"u-1"`, "approx_unique"} {
		if strings.Contains(lean, fragment) {
			t.Fatalf("lean serialization leaked %q:\n%s", fragment, lean)
		}
	}
}

func TestSerializeEmptySnapshotIsExactlyEmptyString(t *testing.T) {
	if got := Serialize(NewDatabaseSnapshot(nil), true); got != "" {
		t.Fatalf("Serialize(empty, true) = %q", got)
	}
	if got := Serialize(DatabaseSnapshot{}, false); got != "" {
		t.Fatalf("Serialize(empty, false) = %q", got)
	}
	if got := SerializeColumnsOnly(DatabaseSnapshot{}); got != "" {
		t.Fatalf("SerializeColumnsOnly(empty) = %q", got)
	}
}

func TestSerializePreservesSnapshotOrder(t *testing.T) {
	text := Serialize(twoTableSnapshot(), false)
	first := strings.Index(text, "raw_log_entries__2_")
	second := strings.Index(text, "orders")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("table order not preserved:\n%s", text)
	}
}

func TestSerializeColumnsOnlyHasNoDetailLines(t *testing.T) {
	text := SerializeColumnsOnly(twoTableSnapshot())
	if !strings.Contains(text, "user_id (VARCHAR)") {
		t.Fatalf("columns missing:\n%s", text)
	}
	if strings.Contains(text, "Sample rows:") || strings.Contains(text, "Statistics:") {
		t.Fatalf("detail lines leaked:\n%s", text)
	}
}

func TestDefaultTableIsFirstInOrder(t *testing.T) {
	table, ok := DefaultTable(twoTableSnapshot())
	if !ok || table.Name != "raw_log_entries__2_" {
		t.Fatalf("DefaultTable() = %v, %v", table.Name, ok)
	}
	if _, ok := DefaultTable(DatabaseSnapshot{}); ok {
		t.Fatal("DefaultTable(empty) should report absence")
	}
}

func TestEncodeJSONKeepsOversizedIntegersAsStrings(t *testing.T) {
	row := map[string]any{"id": "9007199254740993"}
	encoded := EncodeJSON([]map[string]any{row})
	if !strings.Contains(encoded, `"9007199254740993"`) {
		t.Fatalf("oversized integer not string-encoded: %s", encoded)
	}
	if strings.Contains(encoded, `:9007199254740993`) {
		t.Fatalf("oversized integer leaked as numeric literal: %s", encoded)
	}
}
