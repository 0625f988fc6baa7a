package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/duckchat/duckchat/internal/engine"
	"github.com/duckchat/duckchat/internal/schema"
)

const (
	discoveryMaxColumns       = 3
	discoveryMaxValues        = 5
	discoveryCardinalityLimit = 20
)

// BuildDiscoveryInput assembles the profile for one table: row count,
// sample rows, and a distinct-value listing for low-cardinality
// categorical columns. Grouped-count failures skip the column rather than
// failing the profile.
func BuildDiscoveryInput(ctx context.Context, eng engine.Engine, table schema.TableSnapshot) DiscoveryInput {
	input := DiscoveryInput{
		Table:   table.Name,
		Samples: table.Samples,
	}
	if len(table.Stats) > 0 {
		input.RowCount = table.Stats[0].Count
	}

	var b strings.Builder
	columnsUsed := 0
	for _, stat := range table.Stats {
		if columnsUsed >= discoveryMaxColumns {
			break
		}
		if !isCategorical(stat) {
			continue
		}
		counts, err := eng.GroupedCount(ctx, table.Name, stat.Column, discoveryMaxValues)
		if err != nil || len(counts) == 0 {
			continue
		}
		b.WriteString(stat.Column)
		b.WriteString(":\n")
		for _, count := range counts {
			b.WriteString(fmt.Sprintf("  %v: %d\n", engine.SafeValue(count.Value), count.Count))
		}
		columnsUsed++
	}
	input.DistinctValues = strings.TrimRight(b.String(), "\n")
	return input
}

func isCategorical(stat schema.ColumnStatistic) bool {
	if stat.ApproxUnique <= 0 || stat.ApproxUnique > discoveryCardinalityLimit {
		return false
	}
	upper := strings.ToUpper(stat.Type)
	return strings.Contains(upper, "CHAR") ||
		strings.Contains(upper, "TEXT") ||
		strings.Contains(upper, "STRING") ||
		strings.Contains(upper, "ENUM")
}
