package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Keyword is the deterministic fallback analyzer: a criterion passes when any
// significant token of its name or description appears in the transcript.
// Same transcript + same criteria always produce the same analysis.
type Keyword struct{}

func NewKeyword() *Keyword { return &Keyword{} }

func (k *Keyword) Close() error { return nil }

const minTokenLen = 4

func (k *Keyword) Analyze(_ context.Context, transcript string, criteria []CriterionInput) (*Analysis, error) {
	lower := strings.ToLower(transcript)

	out := &Analysis{
		Summary:  summarize(transcript),
		NextStep: "Review the evaluation with the agent and confirm the follow-up promised on the call.",
	}

	passed := 0
	for _, c := range criteria {
		token := matchToken(lower, c)
		if token != "" {
			passed++
			out.Verdicts = append(out.Verdicts, Verdict{
				Passed:        true,
				Justification: fmt.Sprintf("transcript mentions %q, related to %q", token, c.Name),
			})
			if len(out.WentWell) < 3 {
				out.WentWell = append(out.WentWell, Observation{
					Text:      fmt.Sprintf("Criterion %q covered during the call", c.Name),
					Timestamp: "00:00",
				})
			}
			continue
		}
		out.Verdicts = append(out.Verdicts, Verdict{
			Passed:        false,
			Justification: fmt.Sprintf("no mention related to %q found in the transcript", c.Name),
		})
		if len(out.WentWrong) < 3 {
			out.WentWrong = append(out.WentWrong, Observation{
				Text:      fmt.Sprintf("Criterion %q not addressed", c.Name),
				Timestamp: "00:00",
			})
		}
	}

	if len(criteria) > 0 && passed == len(criteria) {
		out.NextStep = "No corrective action needed; share the call as a positive example."
	}
	return out, nil
}

// matchToken returns the first significant token of the criterion found in
// the lowercased transcript, or "".
func matchToken(lowerTranscript string, c CriterionInput) string {
	for _, token := range tokens(c.Name + " " + c.Description) {
		if strings.Contains(lowerTranscript, token) {
			return token
		}
	}
	return ""
}

func tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

func summarize(transcript string) string {
	t := strings.TrimSpace(transcript)
	if t == "" {
		return "No transcript available for this call."
	}
	runes := []rune(t)
	if len(runes) <= 220 {
		return t
	}
	return string(runes[:220]) + "…"
}
