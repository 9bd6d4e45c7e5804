package stt

import "context"

// Segment is one speaker turn; Offset is a "MM:SS" label into the call.
type Segment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Offset  string `json:"offset"`
}

type Result struct {
	Text     string
	Segments []Segment
	Provider string
	Raw      string // provider payload, for debugging
}

type Request struct {
	Audio           []byte // may be empty when no recording is available
	Language        string // example: "pt-BR", "en-US"
	DurationSeconds int
}

type Provider interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
	Close() error
}
