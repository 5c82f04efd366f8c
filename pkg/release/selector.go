package release

import (
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/crossover-sources/pkg/types"
)

// ErrNoEligibleRelease is returned when no candidate carries a version.
var ErrNoEligibleRelease = xerrors.New("no eligible release found")

// Select picks the latest release from recency-ordered candidates.
func Select(candidates []types.Candidate, policy types.Policy) (types.Release, error) {
	selectable := lo.Filter(candidates, func(c types.Candidate, _ int) bool {
		return c.Selectable()
	})
	if len(selectable) == 0 {
		return types.Release{}, xerrors.Errorf("%d candidate(s) without version: %w", len(candidates), ErrNoEligibleRelease)
	}

	var latest types.Candidate
	switch policy {
	case types.PolicyRecency, "":
		latest = selectable[0]
	case types.PolicySemver:
		latest = maxVersion(selectable)
	default:
		return types.Release{}, xerrors.Errorf("unknown selection policy %q", policy)
	}

	return types.Release{
		Name:    latest.Name,
		URL:     latest.URL,
		Version: latest.Version,
	}, nil
}

// maxVersion returns the candidate with the highest version.
// Equal versions resolve to the earliest one in the slice, i.e. the most recent.
func maxVersion(candidates []types.Candidate) types.Candidate {
	return lo.MaxBy(candidates, func(a, b types.Candidate) bool {
		return parseVersion(a.Version).GreaterThan(parseVersion(b.Version))
	})
}

// parseVersion treats versions semver rejects (e.g. leading zeros) as 0.0.0.
func parseVersion(v string) *semver.Version {
	ver, err := semver.NewVersion(v)
	if err != nil {
		slog.Warn("Unable to parse version", slog.String("version", v), slog.String("error", err.Error()))
		return semver.New(0, 0, 0, "", "")
	}
	return ver
}
