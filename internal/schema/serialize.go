package schema

import (
	"encoding/json"
	"strings"
)

// Serialize renders a snapshot into the text block injected into model
// prompts. The exact shape is load-bearing: prompts instruct the model to
// read table and column names out of it, so separators and field order are
// contract, not cosmetics. An empty snapshot renders as the empty string,
// which prompt assembly special-cases as "no schema available".
//
// When includeDetails is false the sample and statistics lines are omitted
// entirely, for low-token operations like suggestion generation.
func Serialize(snapshot DatabaseSnapshot, includeDetails bool) string {
	if snapshot.IsEmpty() {
		return ""
	}

	blocks := make([]string, 0, snapshot.Len())
	for _, table := range snapshot.Tables() {
		var b strings.Builder
		b.WriteString("Table: ")
		b.WriteString(table.Name)
		b.WriteString("\nColumns: ")
		b.WriteString(joinColumns(table.Columns))
		if includeDetails {
			b.WriteString("\nSample rows: ")
			b.WriteString(encodeJSON(table.Samples))
			b.WriteString("\nStatistics: ")
			b.WriteString(encodeJSON(table.Stats))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// SerializeColumnsOnly renders table names and columns with no samples or
// statistics, used to keep the SQL-repair prompt small.
func SerializeColumnsOnly(snapshot DatabaseSnapshot) string {
	if snapshot.IsEmpty() {
		return ""
	}
	blocks := make([]string, 0, snapshot.Len())
	for _, table := range snapshot.Tables() {
		blocks = append(blocks, "Table: "+table.Name+"\nColumns: "+joinColumns(table.Columns))
	}
	return strings.Join(blocks, "\n\n")
}

func joinColumns(columns []ColumnDescriptor) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, column.Name+" ("+column.Type+")")
	}
	return strings.Join(parts, ", ")
}

// EncodeJSON marshals a value for prompt or UI consumption. Values are
// expected to already be SafeValue-normalized; a marshal failure degrades
// to an empty JSON array rather than failing prompt assembly.
func EncodeJSON(value any) string {
	return encodeJSON(value)
}

func encodeJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
