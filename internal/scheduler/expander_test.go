package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTemplates = map[string]ShiftTemplate{
	"tpl-am":    {ID: "tpl-am", Name: "早班", StartTime: "08:00", EndTime: "16:00"},
	"tpl-night": {ID: "tpl-night", Name: "夜班", StartTime: "22:00:00", EndTime: "06:00:00"},
	"tpl-full":  {ID: "tpl-full", Name: "全天", StartTime: "00:00", EndTime: "00:00"},
}

func TestDateFor_SundayZero(t *testing.T) {
	// 2026-10-21 为周三
	wed := time.Date(2026, 10, 21, 15, 30, 0, 0, time.FixedZone("CST", 8*3600))

	assert.Equal(t, "2026-10-21", DateFor(wed, int(time.Wednesday)).Format(dateLayout))
	assert.Equal(t, "2026-10-25", DateFor(wed, int(time.Sunday)).Format(dateLayout))
	assert.Equal(t, "2026-10-27", DateFor(wed, int(time.Tuesday)).Format(dateLayout))
	assert.Equal(t, "2026-10-24", DateFor(wed, int(time.Saturday)).Format(dateLayout))
}

func TestExpandWeek(t *testing.T) {
	reqs := []Requirement{
		{DayOfWeek: 2, TemplateID: "tpl-night", RequiredCount: 1},
		{DayOfWeek: 1, TemplateID: "tpl-night", RequiredCount: 2},
		{DayOfWeek: 1, TemplateID: "tpl-am", RequiredCount: 3},
		{DayOfWeek: 3, TemplateID: "tpl-am", RequiredCount: 0},
		{DayOfWeek: 0, TemplateID: "tpl-full", RequiredCount: 1},
	}

	got, err := ExpandWeek(testWeek, reqs, testTemplates)
	require.NoError(t, err)
	require.Len(t, got, 4, "需求为 0 的条目应被丢弃")

	assert.Equal(t, "2026-10-19", got[0].DateKey())
	assert.Equal(t, "tpl-am", got[0].TemplateID)
	assert.Equal(t, 8.0, got[0].DurationHours)
	assert.Equal(t, 3, got[0].RequiredCount)

	assert.Equal(t, "2026-10-19", got[1].DateKey())
	assert.Equal(t, "tpl-night", got[1].TemplateID)
	assert.Equal(t, "22:00", got[1].StartTime)
	assert.Equal(t, 8.0, got[1].DurationHours, "跨夜班次按 (end-start) mod 24h 计算")

	assert.Equal(t, "2026-10-20", got[2].DateKey())

	// 周日落在本周最后一天
	assert.Equal(t, "2026-10-25", got[3].DateKey())
	assert.Equal(t, 24.0, got[3].DurationHours)
}

func TestExpandWeek_Malformed(t *testing.T) {
	cases := []struct {
		name string
		req  Requirement
		want error
	}{
		{"模板不存在", Requirement{DayOfWeek: 1, TemplateID: "missing", RequiredCount: 1}, ErrUnknownTemplate},
		{"星期越界", Requirement{DayOfWeek: 7, TemplateID: "tpl-am", RequiredCount: 1}, ErrInvalidDayOfWeek},
		{"需求为负", Requirement{DayOfWeek: 1, TemplateID: "tpl-am", RequiredCount: -2}, ErrNegativeRequired},
		{"模板 ID 为空", Requirement{DayOfWeek: 1, RequiredCount: 1}, ErrEmptyTemplateID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExpandWeek(testWeek, []Requirement{tc.req}, testTemplates)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 465, m)

	m, err = ParseClock("23:59:00")
	require.NoError(t, err)
	assert.Equal(t, 1439, m)

	for _, bad := range []string{"", "24:00", "7", "07:60", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, "输入 %q", bad)
	}
}

func TestDurationHours(t *testing.T) {
	h, err := DurationHours("18:30", "02:00")
	require.NoError(t, err)
	assert.Equal(t, 7.5, h)
}

func TestShiftWindow_Overnight(t *testing.T) {
	from, to, err := ShiftWindow(day(0), "22:00", "06:00")
	require.NoError(t, err)
	assert.Equal(t, day(0).Add(22*time.Hour), from)
	assert.Equal(t, day(1).Add(6*time.Hour), to)

	_, _, err = ShiftWindow(day(0), "25:00", "06:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
}
