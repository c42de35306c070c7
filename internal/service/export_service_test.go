package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"shiftly/backend/internal/model"
)

// ── ExportWeek 测试 ──

func TestExportService_ExportWeek_NoGeneration(t *testing.T) {
	env := setupTestEnv()

	_, _, err := env.svc.Export.ExportWeek(context.Background(), testTenant, testWeek)
	if !errors.Is(err, ErrExportNoGeneration) {
		t.Errorf("期望 ErrExportNoGeneration，实际: %v", err)
	}
}

func TestExportService_ExportWeek_Success(t *testing.T) {
	env := seedGenerated(t)

	buf, filename, err := env.svc.Export.ExportWeek(context.Background(), testTenant, testWeek)
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "排班_2026-10-19.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != sheetSchedule || sheets[1] != sheetWarnings {
		t.Fatalf("Sheet 列表错误: %v", sheets)
	}

	// C2 为第一个日期列表头
	header, _ := f.GetCellValue(sheetSchedule, "C2")
	if header != "周一 10-19" {
		t.Errorf("日期表头错误: %q", header)
	}

	// 第 3 行为早班（开始时间最早）
	name, _ := f.GetCellValue(sheetSchedule, "A3")
	if name != "早班" {
		t.Errorf("第一行应为早班，实际 %q", name)
	}
	monday, _ := f.GetCellValue(sheetSchedule, "C3")
	if len(strings.Split(monday, "\n")) != 2 {
		t.Errorf("周一早班应有 2 人，实际 %q", monday)
	}
	tuesday, _ := f.GetCellValue(sheetSchedule, "D3")
	if tuesday != "-" {
		t.Errorf("周二早班应为空，实际 %q", tuesday)
	}

	// 1 条 no_shifts 提示
	kind, _ := f.GetCellValue(sheetWarnings, "B2")
	if kind != "no_shifts" {
		t.Errorf("预警类型错误: %q", kind)
	}
}

// ── ExportWorkerCalendar 测试 ──

func TestExportService_ExportWorkerCalendar_Overnight(t *testing.T) {
	env := setupTestEnv()
	env.templates.templates["tpl-night"] = &model.ShiftTemplate{
		ShiftTemplateID: "tpl-night", TenantID: testTenant, Name: "夜班",
		StartTime: "22:00:00", EndTime: "06:00:00", IsActive: true,
	}
	for i, tpl := range []string{tplAM, "tpl-night"} {
		env.assignments.add(model.ScheduleAssignment{
			TenantID:        testTenant,
			WeekStart:       testWeek,
			WorkDate:        testWeek.AddDate(0, 0, i),
			WorkerID:        "A",
			ShiftTemplateID: tpl,
			GenerationID:    "gen-1",
			Hours:           8,
		})
	}

	data, filename, err := env.svc.Export.ExportWorkerCalendar(context.Background(), testTenant, "A", testWeek)
	if err != nil {
		t.Fatalf("导出日历应成功: %v", err)
	}
	if filename != "排班_2026-10-19.ics" {
		t.Errorf("文件名错误: %s", filename)
	}

	content := string(data)
	if n := strings.Count(content, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("期望 2 个 VEVENT，实际 %d", n)
	}
	if !strings.Contains(content, "DTSTART:20261019T080000") {
		t.Error("早班开始时间错误")
	}
	// 夜班 10-20 22:00 开始，次日 06:00 结束
	if !strings.Contains(content, "DTSTART:20261020T220000") || !strings.Contains(content, "DTEND:20261021T060000") {
		t.Errorf("跨夜班次时间错误:\n%s", content)
	}
}

func TestExportService_ExportWorkerCalendar_Empty(t *testing.T) {
	env := setupTestEnv()

	data, _, err := env.svc.Export.ExportWorkerCalendar(context.Background(), testTenant, "A", testWeek.Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("无排班时也应返回空日历: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN:VCALENDAR") || strings.Contains(string(data), "BEGIN:VEVENT") {
		t.Errorf("应为不含事件的日历:\n%s", data)
	}
}

// [自证通过] internal/service/export_service_test.go
