package engine

import (
	"math"
	"strconv"
)

// SafeValue converts an engine-scanned value into a JSON-serializable
// scalar. Byte slices become strings, and integers outside the safe-integer
// range (2^53-1) become decimal strings so they survive text serialization
// and round-trip through prompts and the UI without precision loss.
func SafeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	case int64:
		if typed > maxSafeInteger || typed < -maxSafeInteger {
			return strconv.FormatInt(typed, 10)
		}
		return typed
	case uint64:
		if typed > uint64(maxSafeInteger) {
			return strconv.FormatUint(typed, 10)
		}
		return typed
	case float64:
		if math.IsInf(typed, 0) || math.IsNaN(typed) {
			return strconv.FormatFloat(typed, 'g', -1, 64)
		}
		return typed
	default:
		return typed
	}
}

const maxSafeInteger = int64(1)<<53 - 1

// SafeRow applies SafeValue to every value of a row mapping in place and
// returns the same map for convenience.
func SafeRow(row map[string]any) map[string]any {
	for key, value := range row {
		row[key] = SafeValue(value)
	}
	return row
}
