// Package scheduler 自动排班核心：需求展开、可用矩阵构建与贪心分配引擎。
// 本包不做任何 I/O，可对不同租户并发调用。
package scheduler

import (
	"errors"
	"time"
)

var (
	ErrEmptyTemplateID   = errors.New("班次模板 ID 不能为空")
	ErrInvalidClock      = errors.New("时间格式无效，应为 HH:MM")
	ErrNegativeRequired  = errors.New("需求人数不能为负数")
	ErrInvalidDayOfWeek  = errors.New("day_of_week 必须在 0-6 之间")
	ErrUnknownTemplate   = errors.New("需求引用的班次模板不存在或已停用")
	ErrMissingDate       = errors.New("班次实例缺少日期")
	ErrEmptyWorkerID     = errors.New("人员 ID 不能为空")
	ErrDuplicateWorkerID = errors.New("人员 ID 重复")
)

const dateLayout = "2006-01-02"

// ShiftTemplate 参与排班的班次模板
type ShiftTemplate struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	StartTime string `json:"start_time" yaml:"start"` // HH:MM
	EndTime   string `json:"end_time" yaml:"end"`     // HH:MM，早于开始时间表示跨夜
}

// Requirement 某个星期几某班次的需求人数
type Requirement struct {
	DayOfWeek     int    `json:"day_of_week" yaml:"day"` // 0=周日 … 6=周六，与 time.Weekday 一致
	TemplateID    string `json:"shift_template_id" yaml:"shift"`
	RequiredCount int    `json:"required_count" yaml:"required"`
}

// ShiftInstance 落到具体日期上的班次
type ShiftInstance struct {
	Date          time.Time `json:"date"`
	TemplateID    string    `json:"shift_template_id"`
	Name          string    `json:"name"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	RequiredCount int       `json:"required_count"`
	DurationHours float64   `json:"duration_hours"`
}

// DateKey 返回 YYYY-MM-DD
func (s ShiftInstance) DateKey() string { return s.Date.Format(dateLayout) }

// Worker 排班人员；切片顺序即同分时的最终裁决顺序
type Worker struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Options 引擎阈值
type Options struct {
	MaxConsecutiveDays int
	WeeklyHoursCeiling float64
}

const (
	DefaultMaxConsecutiveDays = 6
	DefaultWeeklyHoursCeiling = 48
)

func (o Options) withDefaults() Options {
	if o.MaxConsecutiveDays <= 0 {
		o.MaxConsecutiveDays = DefaultMaxConsecutiveDays
	}
	if o.WeeklyHoursCeiling <= 0 {
		o.WeeklyHoursCeiling = DefaultWeeklyHoursCeiling
	}
	return o
}

// Assignment 一名人员与一个班次实例的配对
type Assignment struct {
	WorkerID   string  `json:"worker_id"`
	Date       string  `json:"date"`
	TemplateID string  `json:"shift_template_id"`
	Hours      float64 `json:"hours"`
}

// WorkerLoad 单人本周负荷
type WorkerLoad struct {
	WorkerID   string  `json:"worker_id"`
	Name       string  `json:"name"`
	Hours      float64 `json:"hours"`
	Shifts     int     `json:"shifts"`
	LongestRun int     `json:"longest_run"`
}

// Stats 生成统计
type Stats struct {
	TotalShiftsRequired int     `json:"total_shifts_required"`
	TotalShiftsFilled   int     `json:"total_shifts_filled"`
	CoveragePercent     float64 `json:"coverage_percent"`
	AvgHoursPerStaff    float64 `json:"avg_hours_per_staff"`
	FairnessScore       float64 `json:"fairness_score"`
}

// Result 引擎输出
type Result struct {
	Assignments []Assignment `json:"assignments"`
	Warnings    Warnings     `json:"warnings"`
	Stats       Stats        `json:"stats"`
	WorkerLoads []WorkerLoad `json:"worker_loads"`
}

// NeedsReview 存在 warning 及以上级别的预警时需要店主复核
func (r *Result) NeedsReview() bool {
	for _, w := range r.Warnings {
		if w.Severity() != SeverityInfo {
			return true
		}
	}
	return false
}
