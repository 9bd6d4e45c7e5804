package models

import "time"

// CategoryAll is the sentinel category: the criterion applies to every agent
// category. Matching is case-insensitive.
const CategoryAll = "all"

type Criterion struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	Name        string    `gorm:"column:name;type:text" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Weight      int       `gorm:"column:weight" json:"weight"` // > 0, higher = more impact
	Category    string    `gorm:"column:category;type:text" json:"category"`
	IsActive    bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Criterion) TableName() string { return "criteria" }
