// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunStatistics aggregates the screening funnel for one pipeline run. The
// counters are monotonically non-decreasing, owned exclusively by the
// coordinator, and updated once per stage completion; every other component
// reads them only.
type RunStatistics struct {
	// TotalFound is the total match count reported by the search index,
	// which may exceed the number of records actually fetched.
	TotalFound int `json:"total_found" yaml:"total_found"`

	// Screened is the number of normalized records that passed through
	// title/abstract screening.
	Screened int `json:"screened" yaml:"screened"`

	// Excluded and Included partition the screened records.
	Excluded int `json:"excluded" yaml:"excluded"`
	Included int `json:"included" yaml:"included"`

	// Retrieved is the number of included records whose full text was
	// obtained (downloaded now or already present).
	Retrieved int `json:"retrieved" yaml:"retrieved"`
}

// FunnelConsistent reports whether the counters satisfy the funnel
// invariants: excluded + included == screened and retrieved <= included.
func (s RunStatistics) FunnelConsistent() bool {
	return s.Excluded+s.Included == s.Screened && s.Retrieved <= s.Included
}
