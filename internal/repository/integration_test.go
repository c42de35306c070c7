//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shiftly/backend/internal/model"
	"shiftly/backend/internal/repository"
	"shiftly/backend/pkg/database"
	pkgerrors "shiftly/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("shiftly_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动 postgres 容器失败: %v\n", err)
		os.Exit(1)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "获取连接串失败: %v\n", err)
		os.Exit(1)
	}

	testDB, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err == nil {
		err = database.RunMigrations(sqlDB, zap.NewNop())
	}
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

var week = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

type fixture struct {
	tenant   *model.Tenant
	workers  []model.Worker
	template *model.ShiftTemplate
}

// setupTenant 每个测试使用独立租户，互不干扰
func setupTenant(t *testing.T, kind model.WorkspaceKind) fixture {
	t.Helper()
	ctx := context.Background()

	tenant := &model.Tenant{Name: fmt.Sprintf("测试门店-%d", time.Now().UnixNano()), WorkspaceKind: kind, AutoScheduleEnabled: true}
	if err := testDB.WithContext(ctx).Create(tenant).Error; err != nil {
		t.Fatalf("创建租户失败: %v", err)
	}

	workers := []model.Worker{
		{TenantID: tenant.TenantID, Name: "小王", IsActive: true},
		{TenantID: tenant.TenantID, Name: "小李", IsActive: true},
		{TenantID: tenant.TenantID, Name: "离职员工", IsActive: true},
	}
	if err := testDB.WithContext(ctx).Create(&workers).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}
	// is_active 默认值为 true，false 需要单独更新
	if err := testDB.WithContext(ctx).Model(&workers[2]).Update("is_active", false).Error; err != nil {
		t.Fatalf("停用员工失败: %v", err)
	}

	tpl := &model.ShiftTemplate{TenantID: tenant.TenantID, Name: "早班", StartTime: "08:00", EndTime: "16:00", IsActive: true}
	if err := testDB.WithContext(ctx).Create(tpl).Error; err != nil {
		t.Fatalf("创建班次模板失败: %v", err)
	}

	return fixture{tenant: tenant, workers: workers, template: tpl}
}

// ═══════════════════════════════════════════════════════════
// Trigger
// ═══════════════════════════════════════════════════════════

func TestTriggerRepo_InsertIfAbsent(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	repo := repository.NewTriggerRepo(testDB)
	ctx := context.Background()

	granted, err := repo.InsertIfAbsent(ctx, &model.ScheduleTrigger{TenantID: f.tenant.TenantID, WeekStart: week, GenerationID: uuid.NewString()})
	if err != nil || !granted {
		t.Fatalf("首次插入应成功: granted=%v err=%v", granted, err)
	}

	granted, err = repo.InsertIfAbsent(ctx, &model.ScheduleTrigger{TenantID: f.tenant.TenantID, WeekStart: week, GenerationID: uuid.NewString()})
	if err != nil {
		t.Fatalf("重复插入不应报错: %v", err)
	}
	if granted {
		t.Fatal("同一租户同一周的第二次插入必须被拒绝")
	}
}

func TestTriggerRepo_InsertIfAbsentConcurrent(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	repo := repository.NewTriggerRepo(testDB)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		granted atomic.Int32
		failed  atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.InsertIfAbsent(ctx, &model.ScheduleTrigger{TenantID: f.tenant.TenantID, WeekStart: week, GenerationID: uuid.NewString()})
			if err != nil {
				failed.Add(1)
				return
			}
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if failed.Load() != 0 {
		t.Fatalf("并发插入不应报错，失败 %d 次", failed.Load())
	}
	if granted.Load() != 1 {
		t.Fatalf("%d 个并发请求中应恰好 1 个获得触发权，实际 %d", n, granted.Load())
	}
}

func TestTriggerRepo_ReleaseOnlyOwnUnconsumed(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	repo := repository.NewTriggerRepo(testDB)
	ctx := context.Background()
	genID := uuid.NewString()

	if _, err := repo.InsertIfAbsent(ctx, &model.ScheduleTrigger{TenantID: f.tenant.TenantID, WeekStart: week, GenerationID: genID}); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	// 其他 generation 无法释放
	if err := repo.Release(ctx, f.tenant.TenantID, week, uuid.NewString()); err != nil {
		t.Fatalf("Release 失败: %v", err)
	}
	if _, err := repo.Get(ctx, f.tenant.TenantID, week); err != nil {
		t.Fatalf("触发记录不应被他人释放: %v", err)
	}

	if err := repo.Release(ctx, f.tenant.TenantID, week, genID); err != nil {
		t.Fatalf("Release 失败: %v", err)
	}
	if _, err := repo.Get(ctx, f.tenant.TenantID, week); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("释放后应查不到记录，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Generation
// ═══════════════════════════════════════════════════════════

func newGeneration(tenantID, genID string) *model.ScheduleGeneration {
	return &model.ScheduleGeneration{
		GenerationID:    genID,
		TenantID:        tenantID,
		WeekStart:       week,
		Source:          model.GenerationSourceAuto,
		TotalRequired:   1,
		TotalFilled:     1,
		CoveragePercent: 100,
		FairnessScore:   100,
		Warnings:        datatypes.JSON(`[]`),
		WorkerLoads:     datatypes.JSON(`[]`),
		AcceptedAt:      time.Now().UTC(),
	}
}

func TestGenerationRepo_RecordConsumesTriggerAndKeepsManualRows(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()
	triggers := repository.NewTriggerRepo(testDB)
	gens := repository.NewGenerationRepo(testDB)
	assignments := repository.NewAssignmentRepo(testDB)

	// 上一次生成：一行自动、一行手工
	prevID := uuid.NewString()
	prev := []model.ScheduleAssignment{
		{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week, WorkerID: f.workers[0].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: prevID, Hours: 8},
		{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week.AddDate(0, 0, 1), WorkerID: f.workers[1].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: prevID, Hours: 8, ManuallyEdited: true},
	}
	prevGen := newGeneration(f.tenant.TenantID, prevID)
	prevGen.Source = model.GenerationSourceManual
	if err := gens.Record(ctx, prevGen, prev, false); err != nil {
		t.Fatalf("写入上一次生成失败: %v", err)
	}

	genID := uuid.NewString()
	if _, err := triggers.InsertIfAbsent(ctx, &model.ScheduleTrigger{TenantID: f.tenant.TenantID, WeekStart: week, GenerationID: genID}); err != nil {
		t.Fatalf("获取触发记录失败: %v", err)
	}
	next := []model.ScheduleAssignment{
		{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week.AddDate(0, 0, 2), WorkerID: f.workers[0].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: genID, Hours: 8},
	}
	if err := gens.Record(ctx, newGeneration(f.tenant.TenantID, genID), next, true); err != nil {
		t.Fatalf("Record 失败: %v", err)
	}

	rows, err := assignments.ListByWeek(ctx, f.tenant.TenantID, week)
	if err != nil {
		t.Fatalf("ListByWeek 失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望保留 1 行手工 + 1 行新排班，实际 %d 行", len(rows))
	}
	for _, row := range rows {
		if !row.ManuallyEdited && row.GenerationID != genID {
			t.Errorf("旧的自动排班应被删除: %+v", row)
		}
		if row.ShiftTemplate == nil || row.ShiftTemplate.Name != "早班" {
			t.Errorf("应预加载班次模板")
		}
	}

	trig, err := triggers.Get(ctx, f.tenant.TenantID, week)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if trig.ConsumedAt == nil {
		t.Error("触发记录应被标记为已消费")
	}

	latest, err := gens.GetLatest(ctx, f.tenant.TenantID, week)
	if err != nil {
		t.Fatalf("GetLatest 失败: %v", err)
	}
	if latest.GenerationID != genID {
		t.Errorf("最新生成应为 %s，实际 %s", genID, latest.GenerationID)
	}

	history, err := gens.ListByWeek(ctx, f.tenant.TenantID, week)
	if err != nil || len(history) != 2 {
		t.Fatalf("历史记录应保留 2 条: n=%d err=%v", len(history), err)
	}
}

func TestGenerationRepo_RecordRollsBackWithoutTrigger(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()
	gens := repository.NewGenerationRepo(testDB)

	genID := uuid.NewString()
	rows := []model.ScheduleAssignment{
		{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week, WorkerID: f.workers[0].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: genID, Hours: 8},
	}
	err := gens.Record(ctx, newGeneration(f.tenant.TenantID, genID), rows, true)
	if !errors.Is(err, repository.ErrTriggerNotHeld) {
		t.Fatalf("期望 ErrTriggerNotHeld，实际: %v", err)
	}

	if _, err := gens.GetByID(ctx, f.tenant.TenantID, genID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("事务回滚后不应存在生成记录，实际: %v", err)
	}
	left, _ := repository.NewAssignmentRepo(testDB).ListByWeek(ctx, f.tenant.TenantID, week)
	if len(left) != 0 {
		t.Errorf("事务回滚后不应存在排班，实际 %d 行", len(left))
	}
}

func TestGenerationRepo_ConcurrentRecordSameWeek(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()
	gens := repository.NewGenerationRepo(testDB)

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			genID := uuid.NewString()
			rows := []model.ScheduleAssignment{
				{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week, WorkerID: f.workers[0].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: genID, Hours: 8},
				{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week, WorkerID: f.workers[1].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: genID, Hours: 8},
			}
			gen := newGeneration(f.tenant.TenantID, genID)
			gen.Source = model.GenerationSourceManual
			errs[i] = gens.Record(ctx, gen, rows, false)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("第 %d 次 Record 失败: %v", i, err)
		}
	}

	rows, err := repository.NewAssignmentRepo(testDB).ListByWeek(ctx, f.tenant.TenantID, week)
	if err != nil {
		t.Fatalf("ListByWeek 失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("同一周并发生成后只应保留一套排班（2 行），实际 %d 行", len(rows))
	}
	if rows[0].GenerationID != rows[1].GenerationID {
		t.Errorf("保留的排班应来自同一次生成: %s / %s", rows[0].GenerationID, rows[1].GenerationID)
	}

	history, err := gens.ListByWeek(ctx, f.tenant.TenantID, week)
	if err != nil || len(history) != n {
		t.Fatalf("每次生成都应留下历史记录: n=%d err=%v", len(history), err)
	}
}

func TestAssignmentSlotIsUnique(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()

	genID := uuid.NewString()
	if err := testDB.WithContext(ctx).Create(newGeneration(f.tenant.TenantID, genID)).Error; err != nil {
		t.Fatalf("创建生成记录失败: %v", err)
	}
	row := func() *model.ScheduleAssignment {
		return &model.ScheduleAssignment{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week, WorkerID: f.workers[0].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: genID, Hours: 8}
	}
	if err := testDB.WithContext(ctx).Create(row()).Error; err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	if err := testDB.WithContext(ctx).Create(row()).Error; err == nil {
		t.Fatal("同一人同一班次重复写入应违反唯一约束")
	}
}

// ═══════════════════════════════════════════════════════════
// Availability
// ═══════════════════════════════════════════════════════════

func TestAvailabilityRepo_ReplaceKeepsOverrides(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()
	repo := repository.NewAvailabilityRepo(testDB)
	tenantID, workerID, tplID := f.tenant.TenantID, f.workers[0].WorkerID, f.template.ShiftTemplateID

	reason := "电话确认"
	if err := repo.UpsertOverride(ctx, &model.AvailabilityEntry{
		TenantID: tenantID, WorkerID: workerID, WeekStart: week, ShiftTemplateID: tplID, DayOfWeek: 1,
		IsAvailable: true, SubmittedBy: uuid.NewString(), OverrideReason: &reason,
	}); err != nil {
		t.Fatalf("UpsertOverride 失败: %v", err)
	}

	self := func(day int, ok bool) model.AvailabilityEntry {
		return model.AvailabilityEntry{TenantID: tenantID, WorkerID: workerID, WeekStart: week, ShiftTemplateID: tplID, DayOfWeek: day, IsAvailable: ok, SubmittedBy: workerID}
	}
	if err := repo.ReplaceSelfSubmitted(ctx, tenantID, workerID, week, []model.AvailabilityEntry{self(1, false), self(2, true)}); err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}
	if err := repo.ReplaceSelfSubmitted(ctx, tenantID, workerID, week, []model.AvailabilityEntry{self(3, true)}); err != nil {
		t.Fatalf("重新提交失败: %v", err)
	}

	entries, err := repo.ListByWorkerAndWeek(ctx, tenantID, workerID, week)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("期望 1 条代填 + 1 条本人提交，实际 %d 条", len(entries))
	}

	ids, err := repo.ListSubmittedWorkerIDs(ctx, tenantID, week)
	if err != nil || len(ids) != 1 || ids[0] != workerID {
		t.Fatalf("已提交人员应只有 %s: ids=%v err=%v", workerID, ids, err)
	}

	n, err := repo.DeleteSelfSubmitted(ctx, tenantID, workerID, week)
	if err != nil || n != 1 {
		t.Fatalf("撤回应删除 1 条本人提交: n=%d err=%v", n, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Workspace stores
// ═══════════════════════════════════════════════════════════

func TestWorkspaceStores_Shop(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()

	set, err := repository.NewWorkspaceStores(testDB).For(model.WorkspaceShop)
	if err != nil {
		t.Fatalf("For 失败: %v", err)
	}

	workers, err := set.Roster.ListActiveWorkers(ctx, f.tenant.TenantID)
	if err != nil {
		t.Fatalf("ListActiveWorkers 失败: %v", err)
	}
	if len(workers) != 2 {
		t.Errorf("停用员工不应出现在名单中，实际 %d 人", len(workers))
	}

	if _, err := set.Roster.GetActiveWorker(ctx, f.tenant.TenantID, f.workers[2].WorkerID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("停用员工应查不到，实际: %v", err)
	}
}

func TestWorkspaceStores_TeamFallsBackToRecurring(t *testing.T) {
	f := setupTenant(t, model.WorkspaceTeam)
	ctx := context.Background()

	members := []model.TenantMember{
		{TenantID: f.tenant.TenantID, UserID: uuid.NewString(), DisplayName: "店长", Role: model.MemberRoleOwner, Status: model.MemberStatusActive},
		{TenantID: f.tenant.TenantID, UserID: uuid.NewString(), DisplayName: "成员甲", Role: model.MemberRoleStaff, Status: model.MemberStatusActive},
	}
	if err := testDB.WithContext(ctx).Create(&members).Error; err != nil {
		t.Fatalf("创建成员失败: %v", err)
	}
	recurring := model.ShiftRequirement{TenantID: f.tenant.TenantID, DayOfWeek: 1, ShiftTemplateID: f.template.ShiftTemplateID, RequiredCount: 2}
	if err := testDB.WithContext(ctx).Create(&recurring).Error; err != nil {
		t.Fatalf("创建默认需求失败: %v", err)
	}

	set, err := repository.NewWorkspaceStores(testDB).For(model.WorkspaceTeam)
	if err != nil {
		t.Fatalf("For 失败: %v", err)
	}

	roster, err := set.Roster.ListActiveWorkers(ctx, f.tenant.TenantID)
	if err != nil || len(roster) != 1 || roster[0].Name != "成员甲" {
		t.Fatalf("team 名单应只包含 staff 成员: %v err=%v", roster, err)
	}

	reqs, err := set.Requirements.ListRequirements(ctx, f.tenant.TenantID, week)
	if err != nil || len(reqs) != 1 || reqs[0].WeekStart != nil {
		t.Fatalf("没有周需求时应回落到默认需求: %v err=%v", reqs, err)
	}

	weekly := model.ShiftRequirement{TenantID: f.tenant.TenantID, WeekStart: &week, DayOfWeek: 2, ShiftTemplateID: f.template.ShiftTemplateID, RequiredCount: 1}
	if err := testDB.WithContext(ctx).Create(&weekly).Error; err != nil {
		t.Fatalf("创建周需求失败: %v", err)
	}
	reqs, err = set.Requirements.ListRequirements(ctx, f.tenant.TenantID, week)
	if err != nil || len(reqs) != 1 || reqs[0].DayOfWeek != 2 {
		t.Fatalf("存在周需求时应只使用周需求: %v err=%v", reqs, err)
	}
}

func TestWorkspaceStores_UnknownKind(t *testing.T) {
	_, err := repository.NewWorkspaceStores(testDB).For("warehouse")
	if !errors.Is(err, pkgerrors.ErrUnknownWorkspaceKind) {
		t.Errorf("期望 ErrUnknownWorkspaceKind，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Assignment
// ═══════════════════════════════════════════════════════════

func TestAssignmentRepo_UpdateOptimisticLock(t *testing.T) {
	f := setupTenant(t, model.WorkspaceShop)
	ctx := context.Background()
	gens := repository.NewGenerationRepo(testDB)
	repo := repository.NewAssignmentRepo(testDB)

	genID := uuid.NewString()
	rows := []model.ScheduleAssignment{
		{TenantID: f.tenant.TenantID, WeekStart: week, WorkDate: week, WorkerID: f.workers[0].WorkerID, ShiftTemplateID: f.template.ShiftTemplateID, GenerationID: genID, Hours: 8},
	}
	if err := gens.Record(ctx, newGeneration(f.tenant.TenantID, genID), rows, false); err != nil {
		t.Fatalf("Record 失败: %v", err)
	}

	list, _ := repo.ListByWeek(ctx, f.tenant.TenantID, week)
	if len(list) != 1 {
		t.Fatalf("期望 1 行排班，实际 %d", len(list))
	}

	first := list[0]
	stale := list[0]

	first.WorkerID = f.workers[1].WorkerID
	if err := repo.Update(ctx, &first); err != nil {
		t.Fatalf("首次更新失败: %v", err)
	}
	if first.Version != 2 || !first.ManuallyEdited {
		t.Errorf("更新后 version=2 且标记手工调整，实际 version=%d manual=%v", first.Version, first.ManuallyEdited)
	}

	stale.WorkerID = f.workers[0].WorkerID
	if err := repo.Update(ctx, &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("旧版本更新应返回 ErrOptimisticLock，实际: %v", err)
	}

	manual, err := repo.ListManualByWeek(ctx, f.tenant.TenantID, week)
	if err != nil || len(manual) != 1 {
		t.Fatalf("应有 1 行手工调整: n=%d err=%v", len(manual), err)
	}
}
