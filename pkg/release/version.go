package release

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/aquasecurity/crossover-sources/pkg/types"
)

var versionRegexp = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)

// ExtractVersion returns the first major.minor.patch found in name.
// ok is false when name doesn't belong to the family.
// A family name without a version yields ("", true).
func ExtractVersion(family, name string) (version string, ok bool) {
	if !strings.Contains(name, family) {
		return "", false
	}
	return versionRegexp.FindString(name), true
}

type Extractor struct {
	family string
}

func NewExtractor(family string) Extractor {
	return Extractor{family: family}
}

// Annotate keeps family members and fills in their versions. Order is preserved.
func (e Extractor) Annotate(candidates []types.Candidate) []types.Candidate {
	return lo.FilterMap(candidates, func(c types.Candidate, _ int) (types.Candidate, bool) {
		ver, ok := e.ExtractVersion(c.Name)
		if !ok {
			slog.Debug("Skip entry outside the family", slog.String("name", c.Name), slog.String("family", e.family))
			return types.Candidate{}, false
		}
		if ver == "" {
			slog.Warn("No version in entry name", slog.String("name", c.Name))
		}
		c.Version = ver
		return c, true
	})
}

func (e Extractor) ExtractVersion(name string) (string, bool) {
	return ExtractVersion(e.family, name)
}
