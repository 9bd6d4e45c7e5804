package models

// CallCriterionResult is the outcome of evaluating one criterion against one
// call. Written once during analysis, immutable after, deleted with the call.
type CallCriterionResult struct {
	ID            string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CallID        string  `gorm:"column:call_id;type:uuid;index" json:"call_id"`
	CriterionID   string  `gorm:"column:criterion_id;type:uuid;index" json:"criterion_id"`
	Passed        bool    `gorm:"column:passed" json:"passed"`
	Justification string  `gorm:"column:justification;type:text" json:"justification"`
	TimestampRef  *string `gorm:"column:timestamp_ref;type:text" json:"timestamp_ref,omitempty"`
}

func (CallCriterionResult) TableName() string { return "call_criterion_results" }
