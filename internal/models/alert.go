package models

import "time"

type AlertType string

const (
	AlertLowScore     AlertType = "low_score"
	AlertRiskWords    AlertType = "risk_words"
	AlertLongDuration AlertType = "long_duration"
	AlertNoNextStep   AlertType = "no_next_step"
)

type Alert struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID string    `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	CallID    string    `gorm:"column:call_id;type:uuid;index" json:"call_id"`
	AgentID   string    `gorm:"column:agent_id;type:uuid;index" json:"agent_id"`
	Type      AlertType `gorm:"column:type;type:text" json:"type"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	IsRead    bool      `gorm:"column:is_read" json:"is_read"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Alert) TableName() string { return "alerts" }
