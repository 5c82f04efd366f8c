package release

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/aquasecurity/crossover-sources/pkg/types"
)

// Candidates drops the leading header rows and rows without a name,
// orders the rest by last modification (newest first) and derives download URLs.
func Candidates(rows []types.Row, baseURL string, headerRows int) []types.Candidate {
	if headerRows >= len(rows) {
		return nil
	}
	rows = rows[max(headerRows, 0):]

	named := lo.Filter(rows, func(row types.Row, _ int) bool {
		if row.Name == "" {
			slog.Debug("Skip row without name", slog.Any("columns", row.Columns))
			return false
		}
		return true
	})

	// Stable so that entries with the same timestamp keep the listing order.
	slices.SortStableFunc(named, func(a, b types.Row) int {
		return cmp.Compare(b.LastModified.UnixNano(), a.LastModified.UnixNano())
	})

	return lo.Map(named, func(row types.Row, _ int) types.Candidate {
		return types.Candidate{
			Name:         row.Name,
			URL:          JoinURL(baseURL, row.Name),
			LastModified: row.LastModified,
		}
	})
}

// JoinURL returns baseURL + "/" + name. It never fails.
func JoinURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + name
}
