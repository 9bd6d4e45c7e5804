package llm

import "context"

// CriterionInput is the slice of a criterion the analyzer needs.
type CriterionInput struct {
	ID          string
	Name        string
	Description string
	Weight      int
}

// Verdict is the pass/fail outcome for one criterion.
type Verdict struct {
	Passed        bool
	Justification string
	TimestampRef  string // "MM:SS" pointer into the transcript, may be empty
}

// Observation is a highlighted moment, good or bad.
type Observation struct {
	Text      string
	Timestamp string
}

// Analysis is the full evaluation of one transcript. Verdicts correspond 1:1,
// in order, to the criteria passed to Analyze.
type Analysis struct {
	Summary   string
	NextStep  string
	Verdicts  []Verdict
	WentWell  []Observation
	WentWrong []Observation
	Raw       string // provider payload, for debugging
}

type Analyzer interface {
	Analyze(ctx context.Context, transcript string, criteria []CriterionInput) (*Analysis, error)
	Close() error
}
