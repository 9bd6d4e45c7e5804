package models

import (
	"time"

	"gorm.io/datatypes"
)

type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
	DirectionMeeting  CallDirection = "meeting"
)

// TranscriptSegment is one speaker turn. Offset is a label like "01:35".
type TranscriptSegment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Offset  string `json:"offset"`
}

// Remark is an analysis observation anchored to a point in the transcript.
type Remark struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type Call struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;type:uuid;uniqueIndex:uniq_company_external,priority:1;index" json:"company_id"`
	AgentID   string `gorm:"column:agent_id;type:uuid;index" json:"agent_id"`

	// ExternalCallID is the telephony provider's id; unique per company so a
	// re-delivered webhook maps back to the already-processed call.
	ExternalCallID *string `gorm:"column:external_call_id;type:text;uniqueIndex:uniq_company_external,priority:2" json:"external_call_id,omitempty"`

	PhoneNumber     string        `gorm:"column:phone_number;type:text" json:"phone_number"`
	Direction       CallDirection `gorm:"column:direction;type:text" json:"direction"`
	DurationSeconds int           `gorm:"column:duration_seconds" json:"duration_seconds"`
	AudioReference  *string       `gorm:"column:audio_reference;type:text" json:"audio_reference,omitempty"`
	CallDate        time.Time     `gorm:"column:call_date;type:timestamptz;index" json:"call_date"`

	Transcript         *string             `gorm:"column:transcript;type:text" json:"transcript,omitempty"`
	TranscriptSegments []TranscriptSegment `gorm:"column:transcript_segments;type:jsonb;serializer:json" json:"transcript_segments,omitempty"`

	Summary            string   `gorm:"column:summary;type:text" json:"summary"`
	NextStep           string   `gorm:"column:next_step;type:text" json:"next_step"`
	FinalScore         *float64 `gorm:"column:final_score" json:"final_score,omitempty"`
	ScoreJustification string   `gorm:"column:score_justification;type:text" json:"score_justification"`
	WhatWentWell       []Remark `gorm:"column:what_went_well;type:jsonb;serializer:json" json:"what_went_well,omitempty"`
	WhatWentWrong      []Remark `gorm:"column:what_went_wrong;type:jsonb;serializer:json" json:"what_went_wrong,omitempty"`
	RiskWords          []string `gorm:"column:risk_words;type:jsonb;serializer:json" json:"risk_words,omitempty"`

	// Raw provider payloads (STT / LLM), kept for debugging.
	ProviderMetadata datatypes.JSON `gorm:"column:provider_metadata;type:jsonb" json:"provider_metadata,omitempty"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at;type:timestamptz" json:"processed_at,omitempty"`
}

func (Call) TableName() string { return "calls" }
