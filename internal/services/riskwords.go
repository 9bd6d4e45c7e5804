package services

import "strings"

// DetectRiskWords reports which configured phrases occur in the transcript.
// Matching is case-insensitive substring; each phrase appears at most once,
// in configuration order.
func DetectRiskWords(transcript string, phrases []string) []string {
	if transcript == "" || len(phrases) == 0 {
		return nil
	}
	lower := strings.ToLower(transcript)

	var matched []string
	for _, p := range phrases {
		needle := strings.ToLower(strings.TrimSpace(p))
		if needle == "" {
			continue
		}
		if strings.Contains(lower, needle) {
			matched = append(matched, p)
		}
	}
	return matched
}
