package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// NormalizeDate 截取 t 所在日历日，返回该日 UTC 零点
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateFor 返回 [weekStart, weekStart+7d) 内星期几为 dayOfWeek 的日期
// weekStart 可以是任意星期几
func DateFor(weekStart time.Time, dayOfWeek int) time.Time {
	start := NormalizeDate(weekStart)
	offset := (dayOfWeek - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, offset)
}

// ParseClock 解析 HH:MM 或 HH:MM:SS，返回距零点的分钟数
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	return h*60 + m, nil
}

// shiftMinutes 班次时长（分钟）；结束不晚于开始视为跨夜，相等即 24 小时
func shiftMinutes(startMin, endMin int) int {
	d := (endMin - startMin + minutesPerDay) % minutesPerDay
	if d == 0 {
		return minutesPerDay
	}
	return d
}

// DurationHours 按模板起止时间计算时长
func DurationHours(start, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	return float64(shiftMinutes(s, e)) / 60, nil
}

// ShiftWindow 班次在 date 当天的绝对起止时间；跨夜班次的结束落在次日
func ShiftWindow(date time.Time, start, end string) (time.Time, time.Time, error) {
	s, err := ParseClock(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := NormalizeDate(date).Add(time.Duration(s) * time.Minute)
	return from, from.Add(time.Duration(shiftMinutes(s, e)) * time.Minute), nil
}

// ExpandWeek 将按星期几定义的需求展开为本周的具体班次实例
// templates 只应包含启用中的模板；需求人数为 0 的需求直接丢弃
// 输出按日期、开始时间、模板 ID 排序
func ExpandWeek(weekStart time.Time, reqs []Requirement, templates map[string]ShiftTemplate) ([]ShiftInstance, error) {
	type keyed struct {
		inst     ShiftInstance
		startMin int
	}

	out := make([]keyed, 0, len(reqs))
	for _, r := range reqs {
		if r.TemplateID == "" {
			return nil, ErrEmptyTemplateID
		}
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidDayOfWeek, r.DayOfWeek)
		}
		if r.RequiredCount < 0 {
			return nil, fmt.Errorf("%w: 模板 %s 星期 %d", ErrNegativeRequired, r.TemplateID, r.DayOfWeek)
		}
		if r.RequiredCount == 0 {
			continue
		}
		tpl, ok := templates[r.TemplateID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, r.TemplateID)
		}
		startMin, err := ParseClock(tpl.StartTime)
		if err != nil {
			return nil, err
		}
		endMin, err := ParseClock(tpl.EndTime)
		if err != nil {
			return nil, err
		}

		out = append(out, keyed{
			inst: ShiftInstance{
				Date:          DateFor(weekStart, r.DayOfWeek),
				TemplateID:    tpl.ID,
				Name:          tpl.Name,
				StartTime:     formatClock(startMin),
				EndTime:       formatClock(endMin),
				RequiredCount: r.RequiredCount,
				DurationHours: float64(shiftMinutes(startMin, endMin)) / 60,
			},
			startMin: startMin,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.inst.Date.Equal(b.inst.Date) {
			return a.inst.Date.Before(b.inst.Date)
		}
		if a.startMin != b.startMin {
			return a.startMin < b.startMin
		}
		return a.inst.TemplateID < b.inst.TemplateID
	})

	instances := make([]ShiftInstance, len(out))
	for i := range out {
		instances[i] = out[i].inst
	}
	return instances, nil
}

func formatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
