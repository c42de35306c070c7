package scheduler

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Engine 贪心排班引擎
//
// 处理顺序：按稀缺度（可用人数 - 需求人数）升序，同稀缺度按日期、开始时间、模板 ID。
// 每个空位在合格人员中选择：本周累计工时最少 → 班次数最少 → 人员切片中靠前。
// 合格条件：矩阵可用、与已排班次时间段不重叠、排入后连续上班天数不超限。
// 贪心结束后对剩余缺口做单步换人修补（见 repair）。
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

type window struct {
	start, end time.Time
}

type preparedInstance struct {
	ShiftInstance
	index    int
	dateKey  string
	startMin int
	minutes  int
	window   window
	supply   int
	pinned   int
	filled   int
}

type workerState struct {
	minutes int
	shifts  int
	windows []window
	days    map[string]int
}

type pickedAssignment struct {
	Assignment
	inst  *preparedInstance
	order int
}

// Schedule 计算一周排班
// 只在输入格式错误时返回 error；供给不足只产生预警
func (e *Engine) Schedule(instances []ShiftInstance, matrix AvailabilityMatrix, workers []Worker) (*Result, error) {
	return e.SchedulePinned(instances, matrix, workers, nil)
}

// SchedulePinned 在已固定的分配（店主手动调整过的班次）基础上排班
// 固定分配先占用对应实例的名额并计入个人工时，但不出现在 Result.Assignments 中；
// 引用未知人员或未知实例的固定分配被忽略
func (e *Engine) SchedulePinned(instances []ShiftInstance, matrix AvailabilityMatrix, workers []Worker, pinned []Assignment) (*Result, error) {
	if err := validateWorkers(workers); err != nil {
		return nil, err
	}
	prepared, err := prepare(instances)
	if err != nil {
		return nil, err
	}

	for _, p := range prepared {
		for _, w := range workers {
			if matrix.Available(w.ID, p.dateKey, p.TemplateID) {
				p.supply++
			}
		}
	}

	order := make([]*preparedInstance, len(prepared))
	copy(order, prepared)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		sa, sb := a.supply-a.RequiredCount, b.supply-b.RequiredCount
		if sa != sb {
			return sa < sb
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.startMin != b.startMin {
			return a.startMin < b.startMin
		}
		return a.TemplateID < b.TemplateID
	})

	states := make([]*workerState, len(workers))
	for i := range states {
		states[i] = &workerState{days: make(map[string]int)}
	}
	applyPinned(prepared, workers, states, pinned)

	result := &Result{Warnings: Warnings{}}
	var picked []*pickedAssignment

	for _, inst := range order {
		inst.filled = inst.pinned
		if inst.filled > inst.RequiredCount {
			inst.filled = inst.RequiredCount
		}
		for inst.filled < inst.RequiredCount {
			best := e.pickWorker(inst, matrix, workers, states, -1)
			if best < 0 {
				break
			}
			states[best].take(inst)
			picked = append(picked, newPicked(inst, workers[best].ID, len(picked)))
			inst.filled++
		}
	}

	picked = e.repair(order, matrix, workers, states, picked)

	for _, inst := range order {
		result.Stats.TotalShiftsRequired += inst.RequiredCount
		result.Stats.TotalShiftsFilled += inst.filled

		if inst.filled < inst.RequiredCount {
			result.Warnings = append(result.Warnings, UnderstaffedWarning{
				Date:       inst.dateKey,
				TemplateID: inst.TemplateID,
				ShiftName:  inst.Name,
				StartTime:  inst.StartTime,
				EndTime:    inst.EndTime,
				Assigned:   inst.filled,
				Required:   inst.RequiredCount,
			})
		}
	}

	// 输出按时间顺序排列，同一实例内保留选中顺序
	sort.SliceStable(picked, func(i, j int) bool {
		a, b := picked[i].inst, picked[j].inst
		if a.index != b.index {
			return a.index < b.index
		}
		return picked[i].order < picked[j].order
	})
	result.Assignments = make([]Assignment, len(picked))
	for i := range picked {
		result.Assignments[i] = picked[i].Assignment
	}

	e.scanWorkers(result, matrix, workers, states)
	return result, nil
}

func newPicked(inst *preparedInstance, workerID string, order int) *pickedAssignment {
	return &pickedAssignment{
		Assignment: Assignment{
			WorkerID:   workerID,
			Date:       inst.dateKey,
			TemplateID: inst.TemplateID,
			Hours:      float64(inst.minutes) / 60,
		},
		inst:  inst,
		order: order,
	}
}

// pickWorker 返回 inst 的最优合格人员下标，skip 为排除的人员；没有合格人员返回 -1
func (e *Engine) pickWorker(inst *preparedInstance, matrix AvailabilityMatrix, workers []Worker, states []*workerState, skip int) int {
	best := -1
	for i, w := range workers {
		if i == skip || !e.eligible(states[i], w.ID, inst, matrix) {
			continue
		}
		if best < 0 || lighter(states[i], states[best]) {
			best = i
		}
	}
	return best
}

func (e *Engine) eligible(st *workerState, workerID string, inst *preparedInstance, matrix AvailabilityMatrix) bool {
	return matrix.Available(workerID, inst.dateKey, inst.TemplateID) &&
		!st.overlaps(inst.window) &&
		e.withinConsecutiveLimit(st, inst.Date)
}

// ════ repair — 缺口修补 ════

// repair 对仍有缺口的实例做单步换人：
// 可用但因时间重叠被挡住的人员 x，若其唯一冲突班次 I 可以转给另一名合格人员 y，
// 则 y 接手 I，x 补入缺口。每次成功都使总排入数 +1，因此必然终止。
// 固定分配不参与转移。
func (e *Engine) repair(order []*preparedInstance, matrix AvailabilityMatrix, workers []Worker, states []*workerState, picked []*pickedAssignment) []*pickedAssignment {
	for progress := true; progress; {
		progress = false
		for _, inst := range order {
			for inst.filled < inst.RequiredCount {
				// 前一轮换人后可能出现直接合格的人员
				if best := e.pickWorker(inst, matrix, workers, states, -1); best >= 0 {
					states[best].take(inst)
					picked = append(picked, newPicked(inst, workers[best].ID, len(picked)))
					inst.filled++
					progress = true
					continue
				}
				x := e.swapInto(inst, matrix, workers, states, picked)
				if x < 0 {
					break
				}
				picked = append(picked, newPicked(inst, workers[x].ID, len(picked)))
				inst.filled++
				progress = true
			}
		}
	}
	return picked
}

// swapInto 尝试一次换人，成功时已更新各人状态并返回补入人员下标，失败返回 -1
func (e *Engine) swapInto(inst *preparedInstance, matrix AvailabilityMatrix, workers []Worker, states []*workerState, picked []*pickedAssignment) int {
	for x, w := range workers {
		if !matrix.Available(w.ID, inst.dateKey, inst.TemplateID) {
			continue
		}
		sx := states[x]
		if sx.countOverlaps(inst.window) != 1 {
			continue
		}
		moved := conflictingPick(picked, w.ID, inst)
		if moved == nil {
			continue
		}

		sx.release(moved.inst)
		if !e.eligible(sx, w.ID, inst, matrix) {
			sx.take(moved.inst)
			continue
		}
		y := e.pickWorker(moved.inst, matrix, workers, states, x)
		if y < 0 {
			sx.take(moved.inst)
			continue
		}

		states[y].take(moved.inst)
		moved.WorkerID = workers[y].ID
		sx.take(inst)
		return x
	}
	return -1
}

// conflictingPick 人员 workerID 的、与 inst 时间重叠的非固定分配；人员已在 inst 上时返回 nil
func conflictingPick(picked []*pickedAssignment, workerID string, inst *preparedInstance) *pickedAssignment {
	for _, p := range picked {
		if p.WorkerID != workerID {
			continue
		}
		if p.inst == inst {
			return nil
		}
		if p.inst.window.start.Before(inst.window.end) && inst.window.start.Before(p.inst.window.end) {
			return p
		}
	}
	return nil
}

func (s *workerState) take(inst *preparedInstance) {
	s.minutes += inst.minutes
	s.shifts++
	s.windows = append(s.windows, inst.window)
	s.days[inst.dateKey]++
}

func (s *workerState) release(inst *preparedInstance) {
	for i, w := range s.windows {
		if w == inst.window {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			break
		}
	}
	s.minutes -= inst.minutes
	s.shifts--
	if s.days[inst.dateKey]--; s.days[inst.dateKey] <= 0 {
		delete(s.days, inst.dateKey)
	}
}

func applyPinned(prepared []*preparedInstance, workers []Worker, states []*workerState, pinned []Assignment) {
	if len(pinned) == 0 {
		return
	}
	byKey := make(map[string]*preparedInstance, len(prepared))
	for _, p := range prepared {
		byKey[p.dateKey+"|"+p.TemplateID] = p
	}
	byWorker := make(map[string]int, len(workers))
	for i, w := range workers {
		byWorker[w.ID] = i
	}
	for _, a := range pinned {
		inst, ok := byKey[a.Date+"|"+a.TemplateID]
		if !ok {
			continue
		}
		i, ok := byWorker[a.WorkerID]
		if !ok || states[i].overlaps(inst.window) {
			continue
		}
		states[i].take(inst)
		inst.pinned++
	}
}

// lighter a 是否比 b 更应优先被选中；完全相同时由调用方按人员顺序裁决
func lighter(a, b *workerState) bool {
	if a.minutes != b.minutes {
		return a.minutes < b.minutes
	}
	return a.shifts < b.shifts
}

func (s *workerState) overlaps(w window) bool {
	return s.countOverlaps(w) > 0
}

func (s *workerState) countOverlaps(w window) int {
	n := 0
	for _, existing := range s.windows {
		if w.start.Before(existing.end) && existing.start.Before(w.end) {
			n++
		}
	}
	return n
}

// withinConsecutiveLimit 排入 date 后，包含 date 的连续上班天数不超过上限
// 当天已有班次不会延长连续天数
func (e *Engine) withinConsecutiveLimit(s *workerState, date time.Time) bool {
	key := date.Format(dateLayout)
	if s.days[key] > 0 {
		return true
	}
	run := 1
	for d := date.AddDate(0, 0, -1); s.days[d.Format(dateLayout)] > 0; d = d.AddDate(0, 0, -1) {
		run++
	}
	for d := date.AddDate(0, 0, 1); s.days[d.Format(dateLayout)] > 0; d = d.AddDate(0, 0, 1) {
		run++
	}
	return run <= e.opts.MaxConsecutiveDays
}

// longestRun 已排日期中最长的连续天数
func (s *workerState) longestRun() int {
	if len(s.days) == 0 {
		return 0
	}
	dates := make([]time.Time, 0, len(s.days))
	for k := range s.days {
		d, _ := time.Parse(dateLayout, k)
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// scanWorkers 汇总个人负荷，补充 no_shifts / overwork 预警并计算统计值
func (e *Engine) scanWorkers(result *Result, matrix AvailabilityMatrix, workers []Worker, states []*workerState) {
	var (
		totalMinutes int
		withShifts   int
		pool         []float64
	)

	result.WorkerLoads = []WorkerLoad{}
	for i, w := range workers {
		st := states[i]
		offered := matrix.Offered(w.ID)
		if !offered && st.shifts == 0 {
			continue
		}

		hours := float64(st.minutes) / 60
		run := st.longestRun()
		result.WorkerLoads = append(result.WorkerLoads, WorkerLoad{
			WorkerID:   w.ID,
			Name:       w.Name,
			Hours:      hours,
			Shifts:     st.shifts,
			LongestRun: run,
		})

		if st.shifts > 0 {
			totalMinutes += st.minutes
			withShifts++
		}
		if offered {
			pool = append(pool, hours)
			if st.shifts == 0 {
				result.Warnings = append(result.Warnings, NoShiftsWarning{WorkerID: w.ID, WorkerName: w.Name})
			}
		}
		if hours > e.opts.WeeklyHoursCeiling || run > e.opts.MaxConsecutiveDays {
			result.Warnings = append(result.Warnings, OverworkWarning{
				WorkerID:           w.ID,
				WorkerName:         w.Name,
				Hours:              hours,
				HoursCeiling:       e.opts.WeeklyHoursCeiling,
				ConsecutiveDays:    run,
				MaxConsecutiveDays: e.opts.MaxConsecutiveDays,
			})
		}
	}

	if result.Stats.TotalShiftsRequired > 0 {
		// 向下取整到两位小数，保证未满员时不会显示为 100
		result.Stats.CoveragePercent = float64(result.Stats.TotalShiftsFilled*10000/result.Stats.TotalShiftsRequired) / 100
	}
	if withShifts > 0 {
		result.Stats.AvgHoursPerStaff = round2(float64(totalMinutes) / 60 / float64(withShifts))
	}
	result.Stats.FairnessScore = FairnessScore(pool)
}

// FairnessScore 100 × (1 − CV / √(n−1))，取值 [0,100]，越高越均匀
// √(n−1) 为 n 人中全部工时集中在一人时的变异系数，即上界
func FairnessScore(hours []float64) float64 {
	n := len(hours)
	if n <= 1 {
		return 100
	}
	var total float64
	for _, h := range hours {
		total += h
	}
	if total == 0 {
		return 100
	}
	mean := total / float64(n)
	var variance float64
	for _, h := range hours {
		variance += (h - mean) * (h - mean)
	}
	variance /= float64(n)
	cv := math.Sqrt(variance) / mean

	score := 100 * (1 - cv/math.Sqrt(float64(n-1)))
	return round2(math.Max(0, math.Min(100, score)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateWorkers(workers []Worker) error {
	seen := make(map[string]bool, len(workers))
	for _, w := range workers {
		if w.ID == "" {
			return ErrEmptyWorkerID
		}
		if seen[w.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateWorkerID, w.ID)
		}
		seen[w.ID] = true
	}
	return nil
}

// prepare 校验实例并计算绝对时间窗口；时长以起止时间为准
func prepare(instances []ShiftInstance) ([]*preparedInstance, error) {
	out := make([]*preparedInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.TemplateID == "" {
			return nil, ErrEmptyTemplateID
		}
		if inst.RequiredCount < 0 {
			return nil, fmt.Errorf("%w: 模板 %s", ErrNegativeRequired, inst.TemplateID)
		}
		if inst.Date.IsZero() {
			return nil, fmt.Errorf("%w: 模板 %s", ErrMissingDate, inst.TemplateID)
		}
		startMin, err := ParseClock(inst.StartTime)
		if err != nil {
			return nil, err
		}
		endMin, err := ParseClock(inst.EndTime)
		if err != nil {
			return nil, err
		}

		date := NormalizeDate(inst.Date)
		minutes := shiftMinutes(startMin, endMin)
		start := date.Add(time.Duration(startMin) * time.Minute)

		p := &preparedInstance{
			ShiftInstance: inst,
			dateKey:       date.Format(dateLayout),
			startMin:      startMin,
			minutes:       minutes,
			window:        window{start: start, end: start.Add(time.Duration(minutes) * time.Minute)},
		}
		p.Date = date
		p.DurationHours = float64(minutes) / 60
		out = append(out, p)
	}

	// index 为时间顺序，用于输出排序
	chrono := make([]*preparedInstance, len(out))
	copy(chrono, out)
	sort.SliceStable(chrono, func(i, j int) bool {
		a, b := chrono[i], chrono[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.startMin != b.startMin {
			return a.startMin < b.startMin
		}
		return a.TemplateID < b.TemplateID
	})
	for i, p := range chrono {
		p.index = i
	}
	return out, nil
}
