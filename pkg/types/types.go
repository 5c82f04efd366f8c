package types

import "time"

type Policy string

const (
	// PolicyRecency picks the most recently modified entry that carries a version.
	PolicyRecency Policy = "recency"
	// PolicySemver picks the highest version, ties go to the most recent entry.
	PolicySemver Policy = "semver"
)

// Row is one entry of a directory listing table
type Row struct {
	Name         string // empty for placeholder rows
	LastModified time.Time
	Columns      map[string]string
}

type Candidate struct {
	Name         string
	URL          string
	LastModified time.Time
	Version      string // empty when no version could be extracted
}

// Selectable reports whether the candidate can be chosen as a release
func (c Candidate) Selectable() bool {
	return c.Version != ""
}

// Release is the record written next to the downloaded artifact
type Release struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version"`
}
