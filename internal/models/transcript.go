package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TranscriptDoc is the full transcript payload for one call. Scalar call
// fields live in Postgres; the document-shaped payload lives here.
type TranscriptDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CallID    string              `bson:"call_id" json:"call_id"`
	CompanyID string              `bson:"company_id" json:"company_id"`
	Provider  string              `bson:"provider" json:"provider"` // "google" | "scripted"
	Text      string              `bson:"text" json:"text"`
	Segments  []TranscriptSegment `bson:"segments" json:"segments"`
	Raw       string              `bson:"raw,omitempty" json:"raw,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
