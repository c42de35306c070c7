package scheduler

import "time"

// Entry 一条可用性记录（已脱离存储层）
type Entry struct {
	WorkerID      string `json:"worker_id" yaml:"worker"`
	TemplateID    string `json:"shift_template_id" yaml:"shift"`
	DayOfWeek     int    `json:"day_of_week" yaml:"day"`
	IsAvailable   bool   `json:"is_available" yaml:"available"`
	OwnerOverride bool   `json:"owner_override" yaml:"override"`
}

// AvailabilityMatrix matrix[workerID][date][templateID]，缺省为不可用
type AvailabilityMatrix map[string]map[string]map[string]bool

// Available 查询某人某日某班次是否可用
func (m AvailabilityMatrix) Available(workerID, date, templateID string) bool {
	return m[workerID][date][templateID]
}

// Offered 是否至少有一格可用
func (m AvailabilityMatrix) Offered(workerID string) bool {
	for _, byTemplate := range m[workerID] {
		for _, ok := range byTemplate {
			if ok {
				return true
			}
		}
	}
	return false
}

// Set 直接写入一格
func (m AvailabilityMatrix) Set(workerID, date, templateID string, available bool) {
	byDate, ok := m[workerID]
	if !ok {
		byDate = make(map[string]map[string]bool)
		m[workerID] = byDate
	}
	byTemplate, ok := byDate[date]
	if !ok {
		byTemplate = make(map[string]bool)
		byDate[date] = byTemplate
	}
	byTemplate[templateID] = available
}

// BuildMatrix 由原始记录构建可用矩阵
// 不在 workers 中的人员记录被忽略；同一格同时存在本人提交与店主代填时以代填为准
func BuildMatrix(weekStart time.Time, entries []Entry, workers []Worker) AvailabilityMatrix {
	active := make(map[string]bool, len(workers))
	m := make(AvailabilityMatrix, len(workers))
	for _, w := range workers {
		active[w.ID] = true
		m[w.ID] = make(map[string]map[string]bool)
	}

	apply := func(override bool) {
		for _, e := range entries {
			if e.OwnerOverride != override || !active[e.WorkerID] {
				continue
			}
			if e.DayOfWeek < 0 || e.DayOfWeek > 6 || e.TemplateID == "" {
				continue
			}
			m.Set(e.WorkerID, DateFor(weekStart, e.DayOfWeek).Format(dateLayout), e.TemplateID, e.IsAvailable)
		}
	}
	apply(false)
	apply(true)

	return m
}
