package scheduler

import "time"

// 2026-10-19 为周一
var testWeek = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return testWeek.AddDate(0, 0, offset) }

func dayKey(offset int) string { return day(offset).Format(dateLayout) }

func instance(offset int, tpl, name, start, end string, required int) ShiftInstance {
	return ShiftInstance{
		Date:          day(offset),
		TemplateID:    tpl,
		Name:          name,
		StartTime:     start,
		EndTime:       end,
		RequiredCount: required,
	}
}

func workersOf(ids ...string) []Worker {
	out := make([]Worker, len(ids))
	for i, id := range ids {
		out[i] = Worker{ID: id, Name: "员工" + id}
	}
	return out
}

func matrixOf(cells ...[3]string) AvailabilityMatrix {
	m := AvailabilityMatrix{}
	for _, c := range cells {
		m.Set(c[0], c[1], c[2], true)
	}
	return m
}

func assignedTo(res *Result, date, tpl string) []string {
	var ids []string
	for _, a := range res.Assignments {
		if a.Date == date && a.TemplateID == tpl {
			ids = append(ids, a.WorkerID)
		}
	}
	return ids
}

func warningsOf(res *Result, t WarningType) []Warning {
	var out []Warning
	for _, w := range res.Warnings {
		if w.Type() == t {
			out = append(out, w)
		}
	}
	return out
}
