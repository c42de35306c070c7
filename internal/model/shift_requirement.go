package model

import "time"

// ShiftRequirement 人力需求表 — 对应 shift_requirements
// WeekStart 为空表示每周默认需求（仅 team 工作区使用）
type ShiftRequirement struct {
	ShiftRequirementID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_requirement_id"`
	TenantID           string     `gorm:"type:uuid;not null"                             json:"tenant_id"`
	WeekStart          *time.Time `gorm:"type:date"                                      json:"week_start,omitempty"`
	DayOfWeek          int        `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周日 … 6=周六
	ShiftTemplateID    string     `gorm:"type:uuid;not null"                             json:"shift_template_id"`
	RequiredCount      int        `gorm:"not null;default:0"                             json:"required_count"`
	CreatedAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (ShiftRequirement) TableName() string { return "shift_requirements" }
