package ops

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

// Resolution selects how relations are counted.
type Resolution string

const (
	// Coarse reports one aggregate relation count.
	Coarse Resolution = "coarse"
	// Fine itemizes relations by type.
	Fine Resolution = "fine"
)

// StatsFormat selects the statistics rendering.
type StatsFormat string

const (
	Table StatsFormat = "table"
	CSV   StatsFormat = "csv"
)

// RecordCount is the number of records of one type.
type RecordCount struct {
	Type  string
	Count int
}

// Count tallies elements by type and relations either in aggregate or by
// type. Elements come first, each block sorted by type name.
func Count(doc *prov.Document, resolution Resolution) ([]RecordCount, error) {
	elements := tally(doc.Elements(), func(e prov.Element) string { return e.Kind.String() })
	relations := doc.Relations()

	switch resolution {
	case Coarse:
		return append(elements, RecordCount{Type: "Relations", Count: len(relations)}), nil
	case Fine:
		return append(elements, tally(relations, func(r prov.Relation) string { return r.Kind.String() })...), nil
	default:
		return nil, fmt.Errorf("unknown statistics resolution %q", resolution)
	}
}

func tally[T any](records []T, typeOf func(T) string) []RecordCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[typeOf(r)]++
	}
	out := make([]RecordCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, RecordCount{Type: t, Count: n})
	}
	slices.SortFunc(out, func(a, b RecordCount) int { return cmp.Compare(a.Type, b.Type) })
	return out
}

// FormatCounts renders counts as a fixed-width table or as CSV.
func FormatCounts(counts []RecordCount, format StatsFormat) (string, error) {
	var sb strings.Builder
	switch format {
	case Table:
		fmt.Fprintf(&sb, "|%-20s|%-20s|\n", "Record Type", "Count")
		fmt.Fprintf(&sb, "+%s+%s+\n", strings.Repeat("-", 20), strings.Repeat("-", 20))
		for _, c := range counts {
			fmt.Fprintf(&sb, "|%-20s|%20d|\n", c.Type, c.Count)
		}
	case CSV:
		sb.WriteString("Record Type, Count\n")
		for _, c := range counts {
			fmt.Fprintf(&sb, "%s, %d\n", c.Type, c.Count)
		}
	default:
		return "", fmt.Errorf("unknown statistics format %q", format)
	}
	return sb.String(), nil
}

// Statistics counts doc and renders the result.
func Statistics(doc *prov.Document, resolution Resolution, format StatsFormat) (string, error) {
	counts, err := Count(doc, resolution)
	if err != nil {
		return "", err
	}
	return FormatCounts(counts, format)
}
