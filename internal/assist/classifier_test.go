package assist

import "testing"

func TestClassifyMarkers(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		kind    Kind
		payload string
	}{
		{"clarify", "CLARIFY: which table?", KindClarify, "which table?"},
		{"chat", "CHAT: hi there", KindChat, "hi there"},
		{"bare sql", "SELECT 1", KindSQL, "SELECT 1"},
		{"fenced sql", "```sql\nSELECT 1\n```", KindSQL, "SELECT 1"},
		{"fenced untagged", "```\nSELECT 2\n```", KindSQL, "SELECT 2"},
		{"padded clarify", "  CLARIFY:   what now?  ", KindClarify, "what now?"},
		{"multiline sql", "```sql\nSELECT a\nFROM t\n```", KindSQL, "SELECT a\nFROM t"},
	}
	for _, tc := range cases {
		got := Classify(tc.raw)
		if got.Kind != tc.kind {
			t.Fatalf("%s: kind = %q, want %q", tc.name, got.Kind, tc.kind)
		}
		if got.Payload != tc.payload {
			t.Fatalf("%s: payload = %q, want %q", tc.name, got.Payload, tc.payload)
		}
	}
}

func TestClassifyDoesNotValidateSQL(t *testing.T) {
	got := Classify("this is not sql at all")
	if got.Kind != KindSQL {
		t.Fatalf("kind = %q, want sql: execution is the validator", got.Kind)
	}
}
