package models

// Agent rows are owned by the excluded user-management CRUD; the pipeline only
// reads CustomRoleName to resolve which criteria apply.
type Agent struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID      string `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	Name           string `gorm:"column:name;type:text" json:"name"`
	CustomRoleName string `gorm:"column:custom_role_name;type:text" json:"custom_role_name"`
}

func (Agent) TableName() string { return "agents" }
