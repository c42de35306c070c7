package model

import (
	"time"

	"gorm.io/datatypes"
)

// 生成来源
const (
	GenerationSourceAuto   = "auto"
	GenerationSourceManual = "manual"
)

// ScheduleGeneration 排班生成记录表 — 对应 schedule_generations（写入后不再修改）
type ScheduleGeneration struct {
	GenerationID     string         `gorm:"type:uuid;primaryKey"                   json:"generation_id"`
	TenantID         string         `gorm:"type:uuid;not null"                     json:"tenant_id"`
	WeekStart        time.Time      `gorm:"type:date;not null"                     json:"week_start"`
	Source           string         `gorm:"type:varchar(10);not null;default:'auto'" json:"source"`
	SupersedesID     *string        `gorm:"type:uuid"                              json:"supersedes_id,omitempty"`
	TotalRequired    int            `gorm:"not null;default:0"                     json:"total_required"`
	TotalFilled      int            `gorm:"not null;default:0"                     json:"total_filled"`
	CoveragePercent  float64        `gorm:"not null;default:0"                     json:"coverage_percent"`
	FairnessScore    float64        `gorm:"not null;default:0"                     json:"fairness_score"`
	AvgHoursPerStaff float64        `gorm:"not null;default:0"                     json:"avg_hours_per_staff"`
	NeedsReview      bool           `gorm:"not null;default:false"                 json:"needs_review"`
	Warnings         datatypes.JSON `gorm:"type:jsonb;not null"                    json:"warnings"`
	WorkerLoads      datatypes.JSON `gorm:"type:jsonb;not null"                    json:"worker_loads"`
	RotationSeed     int64          `gorm:"not null;default:0"                     json:"rotation_seed"`
	AcceptedAt       time.Time      `gorm:"not null"                               json:"accepted_at"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"     json:"created_at"`
	CreatedBy        *string        `gorm:"type:uuid"                              json:"created_by,omitempty"`
}

func (ScheduleGeneration) TableName() string { return "schedule_generations" }

// ScheduleAssignment 排班明细表 — 对应 schedule_assignments
// ManuallyEdited=true 的行不会被自动生成覆盖
type ScheduleAssignment struct {
	AssignmentID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	TenantID        string    `gorm:"type:uuid;not null"                             json:"tenant_id"`
	WeekStart       time.Time `gorm:"type:date;not null"                             json:"week_start"`
	WorkDate        time.Time `gorm:"type:date;not null"                             json:"work_date"`
	WorkerID        string    `gorm:"type:uuid;not null"                             json:"worker_id"`
	ShiftTemplateID string    `gorm:"type:uuid;not null"                             json:"shift_template_id"`
	GenerationID    string    `gorm:"type:uuid;not null"                             json:"generation_id"`
	Hours           float64   `gorm:"not null;default:0"                             json:"hours"`
	ManuallyEdited  bool      `gorm:"not null;default:false"                         json:"manually_edited"`
	Version         int       `gorm:"not null;default:1"                             json:"version"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	UpdatedBy       *string   `gorm:"type:uuid"                                      json:"updated_by,omitempty"`

	// 关联
	ShiftTemplate *ShiftTemplate `gorm:"foreignKey:ShiftTemplateID;references:ShiftTemplateID" json:"shift_template,omitempty"`
}

func (ScheduleAssignment) TableName() string { return "schedule_assignments" }

// ScheduleTrigger 自动排班触发记录 — 对应 schedule_triggers
// (tenant_id, week_start) 主键保证每租户每周至多一次自动生成
type ScheduleTrigger struct {
	TenantID     string     `gorm:"type:uuid;primaryKey"               json:"tenant_id"`
	WeekStart    time.Time  `gorm:"type:date;primaryKey"               json:"week_start"`
	GenerationID string     `gorm:"type:uuid;not null"                 json:"generation_id"`
	AcquiredAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"acquired_at"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
}

func (ScheduleTrigger) TableName() string { return "schedule_triggers" }

// [自证通过] internal/model/schedule_generation.go
