package converter

import (
	"sort"

	"github.com/ginjaninja78/ifrs-report/internal/types"
)

// DefaultThreshold is the inclusive USD cutoff of the report.
const DefaultThreshold = 40_000_000

// Rank computes MaxUSD for every summary, keeps the summaries at or above the
// threshold and sorts them by MaxUSD, largest first. Equal values keep their
// input order. The input slice is not modified.
func Rank(summaries []types.EntitySummary, threshold float64) []types.EntitySummary {
	ranked := make([]types.EntitySummary, 0, len(summaries))
	for _, summary := range summaries {
		summary.MaxUSD = types.Max(summary.IngresosUSD, summary.DeudoresUSD)
		if summary.MaxUSD.AtLeast(threshold) {
			ranked = append(ranked, summary)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MaxUSD.Value > ranked[j].MaxUSD.Value
	})

	return ranked
}
