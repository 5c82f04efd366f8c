package release_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/crossover-sources/pkg/release"
	"github.com/aquasecurity/crossover-sources/pkg/types"
)

const (
	baseURL = "https://media.codeweavers.com/pub/crossover/source"
	family  = "crossover-sources"
)

var (
	t1 = time.Date(2021, 9, 8, 14, 10, 0, 0, time.UTC)
	t2 = time.Date(2021, 11, 30, 17, 22, 0, 0, time.UTC)
	t3 = time.Date(2022, 1, 4, 9, 0, 0, 0, time.UTC)

	// hr row and "Parent Directory" as rendered by Apache
	headerRows = []types.Row{
		{},
		{Name: "Parent Directory"},
	}
)

func rows(rr ...types.Row) []types.Row {
	return append(append([]types.Row{}, headerRows...), rr...)
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name       string
		rows       []types.Row
		baseURL    string
		headerRows int
		want       []types.Candidate
	}{
		{
			name: "sorted by last modified",
			rows: rows(
				types.Row{Name: "crossover-sources-21.0.0.tar.gz", LastModified: t1},
				types.Row{Name: "readme.txt", LastModified: t3},
				types.Row{},
				types.Row{Name: "crossover-sources-21.1.0.tar.gz", LastModified: t2},
			),
			baseURL:    baseURL,
			headerRows: 2,
			want: []types.Candidate{
				{Name: "readme.txt", URL: baseURL + "/readme.txt", LastModified: t3},
				{Name: "crossover-sources-21.1.0.tar.gz", URL: baseURL + "/crossover-sources-21.1.0.tar.gz", LastModified: t2},
				{Name: "crossover-sources-21.0.0.tar.gz", URL: baseURL + "/crossover-sources-21.0.0.tar.gz", LastModified: t1},
			},
		},
		{
			name: "same timestamp keeps listing order",
			rows: rows(
				types.Row{Name: "b", LastModified: t1},
				types.Row{Name: "a", LastModified: t1},
				types.Row{Name: "c"},
			),
			baseURL:    baseURL + "/",
			headerRows: 2,
			want: []types.Candidate{
				{Name: "b", URL: baseURL + "/b", LastModified: t1},
				{Name: "a", URL: baseURL + "/a", LastModified: t1},
				{Name: "c", URL: baseURL + "/c"},
			},
		},
		{
			name:       "only header rows",
			rows:       rows(),
			baseURL:    baseURL,
			headerRows: 2,
		},
		{
			name:       "offset beyond rows",
			rows:       rows(types.Row{Name: "crossover-sources-21.0.0.tar.gz", LastModified: t1}),
			baseURL:    baseURL,
			headerRows: 10,
		},
		{
			name: "no offset",
			rows: []types.Row{
				{Name: "crossover-sources-21.0.0.tar.gz", LastModified: t1},
			},
			baseURL: baseURL,
			want: []types.Candidate{
				{Name: "crossover-sources-21.0.0.tar.gz", URL: baseURL + "/crossover-sources-21.0.0.tar.gz", LastModified: t1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := release.Candidates(tt.rows, tt.baseURL, tt.headerRows)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name        string
		entry       string
		wantVersion string
		wantOK      bool
	}{
		{
			name:        "release tarball",
			entry:       "crossover-sources-21.1.0.tar.gz",
			wantVersion: "21.1.0",
			wantOK:      true,
		},
		{
			name:        "first triplet wins",
			entry:       "crossover-sources-22.0.1-patch-1.2.3.tar.gz",
			wantVersion: "22.0.1",
			wantOK:      true,
		},
		{
			name:        "four components",
			entry:       "crossover-sources-19.0.2.1.tar.gz",
			wantVersion: "19.0.2",
			wantOK:      true,
		},
		{
			name:   "family without version",
			entry:  "crossover-sources-latest.tar.gz",
			wantOK: true,
		},
		{
			name:   "two components only",
			entry:  "crossover-sources-21.1.tar.gz",
			wantOK: true,
		},
		{
			name:  "other file",
			entry: "readme.txt",
		},
		{
			name:  "other file with version",
			entry: "winehq-sources-9.0.0.tar.gz",
		},
		{
			name:  "empty",
			entry: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := release.ExtractVersion(family, tt.entry)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantVersion, got)
		})
	}
}

func TestExtractor_Annotate(t *testing.T) {
	in := []types.Candidate{
		{Name: "readme.txt", LastModified: t3},
		{Name: "crossover-sources-21.1.0.tar.gz", LastModified: t2},
		{Name: "crossover-sources-latest.tar.gz", LastModified: t2},
		{Name: "crossover-sources-21.0.0.tar.gz", LastModified: t1},
	}
	want := []types.Candidate{
		{Name: "crossover-sources-21.1.0.tar.gz", LastModified: t2, Version: "21.1.0"},
		{Name: "crossover-sources-latest.tar.gz", LastModified: t2},
		{Name: "crossover-sources-21.0.0.tar.gz", LastModified: t1, Version: "21.0.0"},
	}

	got := release.NewExtractor(family).Annotate(in)
	assert.Equal(t, want, got)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		candidates []types.Candidate
		policy     types.Policy
		want       types.Release
		wantErr    error
	}{
		{
			name: "most recent with version",
			candidates: []types.Candidate{
				{Name: "crossover-sources-latest.tar.gz", URL: baseURL + "/crossover-sources-latest.tar.gz"},
				{Name: "crossover-sources-21.1.0.tar.gz", URL: baseURL + "/crossover-sources-21.1.0.tar.gz", Version: "21.1.0"},
				{Name: "crossover-sources-21.0.0.tar.gz", URL: baseURL + "/crossover-sources-21.0.0.tar.gz", Version: "21.0.0"},
			},
			policy: types.PolicyRecency,
			want: types.Release{
				Name:    "crossover-sources-21.1.0.tar.gz",
				URL:     baseURL + "/crossover-sources-21.1.0.tar.gz",
				Version: "21.1.0",
			},
		},
		{
			name: "re-uploaded old version wins by recency",
			candidates: []types.Candidate{
				{Name: "crossover-sources-20.0.0.tar.gz", Version: "20.0.0"},
				{Name: "crossover-sources-21.1.0.tar.gz", Version: "21.1.0"},
			},
			want: types.Release{
				Name:    "crossover-sources-20.0.0.tar.gz",
				Version: "20.0.0",
			},
		},
		{
			name: "semver picks highest version",
			candidates: []types.Candidate{
				{Name: "crossover-sources-20.0.0.tar.gz", Version: "20.0.0"},
				{Name: "crossover-sources-21.10.0.tar.gz", Version: "21.10.0"},
				{Name: "crossover-sources-21.9.0.tar.gz", Version: "21.9.0"},
			},
			policy: types.PolicySemver,
			want: types.Release{
				Name:    "crossover-sources-21.10.0.tar.gz",
				Version: "21.10.0",
			},
		},
		{
			name: "semver tie goes to most recent",
			candidates: []types.Candidate{
				{Name: "crossover-sources-21.1.0.tar.xz", Version: "21.1.0"},
				{Name: "crossover-sources-21.1.0.tar.gz", Version: "21.1.0"},
			},
			policy: types.PolicySemver,
			want: types.Release{
				Name:    "crossover-sources-21.1.0.tar.xz",
				Version: "21.1.0",
			},
		},
		{
			name: "no version",
			candidates: []types.Candidate{
				{Name: "crossover-sources-latest.tar.gz"},
			},
			wantErr: release.ErrNoEligibleRelease,
		},
		{
			name:    "empty",
			policy:  types.PolicySemver,
			wantErr: release.ErrNoEligibleRelease,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := release.Select(tt.candidates, tt.policy)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown policy", func(t *testing.T) {
		_, err := release.Select([]types.Candidate{{Name: "a", Version: "1.0.0"}}, "newest")
		require.Error(t, err)
		assert.NotErrorIs(t, err, release.ErrNoEligibleRelease)
	})
}

func TestPipeline(t *testing.T) {
	in := rows(
		types.Row{Name: "crossover-sources-21.0.0.tar.gz", LastModified: t1},
		types.Row{Name: "crossover-sources-21.1.0.tar.gz", LastModified: t2},
		types.Row{Name: "readme.txt", LastModified: t3},
	)
	want := types.Release{
		Name:    "crossover-sources-21.1.0.tar.gz",
		URL:     baseURL + "/crossover-sources-21.1.0.tar.gz",
		Version: "21.1.0",
	}

	for range 2 {
		candidates := release.NewExtractor(family).Annotate(release.Candidates(in, baseURL, 2))
		got, err := release.Select(candidates, types.PolicyRecency)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
