package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// geminiAnalysis is the JSON shape the prompt asks the model for.
type geminiAnalysis struct {
	Summary  string `json:"summary"`
	NextStep string `json:"next_step"`
	Criteria []struct {
		Passed        bool   `json:"passed"`
		Justification string `json:"justification"`
		Timestamp     string `json:"timestamp"`
	} `json:"criteria"`
	WentWell []struct {
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	} `json:"went_well"`
	WentWrong []struct {
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	} `json:"went_wrong"`
}

func (v *VertexGemini) Analyze(ctx context.Context, transcript string, criteria []CriterionInput) (*Analysis, error) {
	prompt := buildPrompt(transcript, criteria)

	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return nil, err
	}

	raw := collectText(resp)
	if raw == "" {
		return nil, errors.New("empty model response")
	}

	parsed, err := parseAnalysisJSON(raw)
	if err != nil {
		return nil, err
	}

	out := &Analysis{
		Summary:  parsed.Summary,
		NextStep: parsed.NextStep,
		Raw:      raw,
	}
	// Verdicts must line up 1:1 with the input criteria; pad or truncate if
	// the model misbehaves.
	for i := range criteria {
		if i < len(parsed.Criteria) {
			c := parsed.Criteria[i]
			out.Verdicts = append(out.Verdicts, Verdict{
				Passed:        c.Passed,
				Justification: c.Justification,
				TimestampRef:  c.Timestamp,
			})
			continue
		}
		out.Verdicts = append(out.Verdicts, Verdict{
			Passed:        false,
			Justification: "not evaluated by the model",
		})
	}
	for _, w := range parsed.WentWell {
		out.WentWell = append(out.WentWell, Observation{Text: w.Text, Timestamp: w.Timestamp})
	}
	for _, w := range parsed.WentWrong {
		out.WentWrong = append(out.WentWrong, Observation{Text: w.Text, Timestamp: w.Timestamp})
	}
	return out, nil
}

func buildPrompt(transcript string, criteria []CriterionInput) string {
	var sb strings.Builder
	sb.WriteString("You are a call-center quality analyst. Evaluate the call transcript below against each criterion.\n")
	sb.WriteString("Answer with a single JSON object: {\"summary\", \"next_step\", \"criteria\": [{\"passed\", \"justification\", \"timestamp\"}], \"went_well\": [{\"text\", \"timestamp\"}], \"went_wrong\": [{\"text\", \"timestamp\"}]}.\n")
	sb.WriteString("The criteria array must have exactly one entry per criterion, in the order given. Timestamps are MM:SS labels from the transcript or empty.\n\n")
	sb.WriteString("Criteria:\n")
	for i, c := range criteria {
		fmt.Fprintf(&sb, "%d. %s — %s (weight %d)\n", i+1, c.Name, c.Description, c.Weight)
	}
	sb.WriteString("\nTranscript:\n")
	sb.WriteString(transcript)
	return sb.String()
}

func collectText(resp *vertexgenai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

// parseAnalysisJSON pulls the JSON object out of the model text; models wrap
// answers in prose or code fences often enough that plain Unmarshal is not
// enough.
func parseAnalysisJSON(raw string) (*geminiAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	var parsed geminiAnalysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return &parsed, nil
}
