package reconcile

import "fmt"

// Outcome classifies what happened to one slot during a run.
type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeUpdated      Outcome = "updated"
	OutcomeUnchanged    Outcome = "unchanged"
	OutcomeConsolidated Outcome = "consolidated"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeAborted      Outcome = "aborted"
	OutcomeFailed       Outcome = "failed"
)

// SlotResult is the per-slot line of the run report.
type SlotResult struct {
	Name    string
	Kind    string
	Span    string
	Outcome Outcome
	Detail  string // reason for skipped/aborted/failed, counts for updated
	Added   int
	Removed int
}

// Label renders the outcome in the "outcome:detail" form used in
// user-facing output.
func (r SlotResult) Label() string {
	if r.Detail == "" {
		return string(r.Outcome)
	}
	return fmt.Sprintf("%s:%s", r.Outcome, r.Detail)
}

// SkippedKind records a playlist kind excluded from the entire run.
type SkippedKind struct {
	Kind   string
	Reason string
}

// Report enumerates per-slot outcomes for one run, enabling a caller to
// act on failures without reading logs.
type Report struct {
	Results      []SlotResult
	SkippedKinds []SkippedKind

	// Mutations counts remote write calls issued during the run. A second
	// run over unchanged input reports zero.
	Mutations int
}

func (r *Report) add(result SlotResult) {
	r.Results = append(r.Results, result)
}

// Counts returns the number of slots per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, result := range r.Results {
		counts[result.Outcome]++
	}
	return counts
}

// HasFailures reports whether any slot failed or aborted.
func (r *Report) HasFailures() bool {
	for _, result := range r.Results {
		if result.Outcome == OutcomeFailed || result.Outcome == OutcomeAborted {
			return true
		}
	}
	return false
}
