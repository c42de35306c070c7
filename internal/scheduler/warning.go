package scheduler

import (
	"encoding/json"
	"fmt"
)

// Severity 预警级别
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// WarningType 预警类型
type WarningType string

const (
	WarningUnderstaffed WarningType = "understaffed"
	WarningOverwork     WarningType = "overwork"
	WarningNoShifts     WarningType = "no_shifts"
)

// Warning 预警的封闭集合：UnderstaffedWarning、OverworkWarning、NoShiftsWarning
// 序列化为 {"type","severity","message","data"}
type Warning interface {
	Type() WarningType
	Severity() Severity
	Message() string
	warning()
}

// UnderstaffedWarning 班次人手不足
type UnderstaffedWarning struct {
	Date       string `json:"date"`
	TemplateID string `json:"shift_template_id"`
	ShiftName  string `json:"shift_name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Assigned   int    `json:"assigned"`
	Required   int    `json:"required"`
}

func (UnderstaffedWarning) Type() WarningType { return WarningUnderstaffed }

func (w UnderstaffedWarning) Severity() Severity {
	if w.Assigned == 0 {
		return SeverityCritical
	}
	return SeverityWarning
}

func (w UnderstaffedWarning) Message() string {
	return fmt.Sprintf("%s %s（%s-%s）需要 %d 人，仅排入 %d 人",
		w.Date, w.ShiftName, w.StartTime, w.EndTime, w.Required, w.Assigned)
}

func (UnderstaffedWarning) warning() {}

// OverworkWarning 周工时超上限或连续上班天数超限
type OverworkWarning struct {
	WorkerID           string  `json:"worker_id"`
	WorkerName         string  `json:"worker_name"`
	Hours              float64 `json:"hours"`
	HoursCeiling       float64 `json:"hours_ceiling"`
	ConsecutiveDays    int     `json:"consecutive_days"`
	MaxConsecutiveDays int     `json:"max_consecutive_days"`
}

func (OverworkWarning) Type() WarningType  { return WarningOverwork }
func (OverworkWarning) Severity() Severity { return SeverityWarning }

func (w OverworkWarning) Message() string {
	if w.Hours > w.HoursCeiling {
		return fmt.Sprintf("%s 本周工时 %.2f 小时，超过上限 %.2f 小时", w.WorkerName, w.Hours, w.HoursCeiling)
	}
	return fmt.Sprintf("%s 连续上班 %d 天，超过上限 %d 天", w.WorkerName, w.ConsecutiveDays, w.MaxConsecutiveDays)
}

func (OverworkWarning) warning() {}

// NoShiftsWarning 提交了可用时间但本周未排到任何班次
type NoShiftsWarning struct {
	WorkerID   string `json:"worker_id"`
	WorkerName string `json:"worker_name"`
}

func (NoShiftsWarning) Type() WarningType  { return WarningNoShifts }
func (NoShiftsWarning) Severity() Severity { return SeverityInfo }

func (w NoShiftsWarning) Message() string {
	return fmt.Sprintf("%s 提交了可用时间，但本周未被安排班次", w.WorkerName)
}

func (NoShiftsWarning) warning() {}

type envelope struct {
	Type     WarningType     `json:"type"`
	Severity Severity        `json:"severity"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
}

// Warnings 预警列表，负责信封格式的编解码
type Warnings []Warning

func (ws Warnings) MarshalJSON() ([]byte, error) {
	out := make([]envelope, 0, len(ws))
	for _, w := range ws {
		data, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		out = append(out, envelope{
			Type:     w.Type(),
			Severity: w.Severity(),
			Message:  w.Message(),
			Data:     data,
		})
	}
	return json.Marshal(out)
}

func (ws *Warnings) UnmarshalJSON(b []byte) error {
	var raw []envelope
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(Warnings, 0, len(raw))
	for _, env := range raw {
		var (
			w   Warning
			err error
		)
		switch env.Type {
		case WarningUnderstaffed:
			var v UnderstaffedWarning
			err = json.Unmarshal(env.Data, &v)
			w = v
		case WarningOverwork:
			var v OverworkWarning
			err = json.Unmarshal(env.Data, &v)
			w = v
		case WarningNoShifts:
			var v NoShiftsWarning
			err = json.Unmarshal(env.Data, &v)
			w = v
		default:
			return fmt.Errorf("未知的预警类型: %q", env.Type)
		}
		if err != nil {
			return fmt.Errorf("解析 %s 预警失败: %w", env.Type, err)
		}
		out = append(out, w)
	}

	*ws = out
	return nil
}

// Count 统计某类型的预警数量
func (ws Warnings) Count(t WarningType) int {
	n := 0
	for _, w := range ws {
		if w.Type() == t {
			n++
		}
	}
	return n
}
