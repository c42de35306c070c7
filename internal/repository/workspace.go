package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shiftly/backend/internal/model"
	pkgerrors "shiftly/backend/pkg/errors"
)

// RosterStore 排班人员来源
type RosterStore interface {
	ListActiveWorkers(ctx context.Context, tenantID string) ([]model.RosterWorker, error)
	GetActiveWorker(ctx context.Context, tenantID, workerID string) (*model.RosterWorker, error)
}

// RequirementStore 人力需求来源
type RequirementStore interface {
	ListRequirements(ctx context.Context, tenantID string, weekStart time.Time) ([]model.ShiftRequirement, error)
}

// StoreSet 一种工作区类型对应的固定数据源组合
type StoreSet struct {
	Roster       RosterStore
	Requirements RequirementStore
}

// WorkspaceStores 工作区类型 → 数据源组合
type WorkspaceStores map[model.WorkspaceKind]StoreSet

func NewWorkspaceStores(db *gorm.DB) WorkspaceStores {
	return WorkspaceStores{
		model.WorkspaceShop: {
			Roster:       NewWorkerRoster(db),
			Requirements: NewWeeklyRequirementStore(db),
		},
		model.WorkspaceTeam: {
			Roster:       NewMemberRoster(db),
			Requirements: NewRecurringRequirementStore(db),
		},
	}
}

// For 按工作区类型选择数据源
func (w WorkspaceStores) For(kind model.WorkspaceKind) (StoreSet, error) {
	set, ok := w[kind]
	if !ok {
		return StoreSet{}, fmt.Errorf("%w: %q", pkgerrors.ErrUnknownWorkspaceKind, kind)
	}
	return set, nil
}

// ── shop：workers 表 ──

type workerRoster struct {
	db *gorm.DB
}

func NewWorkerRoster(db *gorm.DB) RosterStore {
	return &workerRoster{db: db}
}

func (r *workerRoster) ListActiveWorkers(ctx context.Context, tenantID string) ([]model.RosterWorker, error) {
	var workers []model.Worker
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("name ASC, worker_id ASC").
		Find(&workers).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.RosterWorker, len(workers))
	for i, w := range workers {
		out[i] = model.RosterWorker{WorkerID: w.WorkerID, Name: w.Name}
	}
	return out, nil
}

func (r *workerRoster) GetActiveWorker(ctx context.Context, tenantID, workerID string) (*model.RosterWorker, error) {
	var w model.Worker
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND worker_id = ? AND is_active = ?", tenantID, workerID, true).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &model.RosterWorker{WorkerID: w.WorkerID, Name: w.Name}, nil
}

// ── team：tenant_members 表 ──

type memberRoster struct {
	db *gorm.DB
}

func NewMemberRoster(db *gorm.DB) RosterStore {
	return &memberRoster{db: db}
}

func (r *memberRoster) scope(ctx context.Context, tenantID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ? AND status = ?", tenantID, model.MemberRoleStaff, model.MemberStatusActive)
}

func (r *memberRoster) ListActiveWorkers(ctx context.Context, tenantID string) ([]model.RosterWorker, error) {
	var members []model.TenantMember
	err := r.scope(ctx, tenantID).
		Order("display_name ASC, member_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.RosterWorker, len(members))
	for i, m := range members {
		out[i] = model.RosterWorker{WorkerID: m.MemberID, Name: m.DisplayName}
	}
	return out, nil
}

func (r *memberRoster) GetActiveWorker(ctx context.Context, tenantID, workerID string) (*model.RosterWorker, error) {
	var m model.TenantMember
	err := r.scope(ctx, tenantID).
		Where("member_id = ?", workerID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &model.RosterWorker{WorkerID: m.MemberID, Name: m.DisplayName}, nil
}

// ── 需求 ──

type weeklyRequirementStore struct {
	db *gorm.DB
}

// NewWeeklyRequirementStore shop 工作区：只读取该周的需求
func NewWeeklyRequirementStore(db *gorm.DB) RequirementStore {
	return &weeklyRequirementStore{db: db}
}

func (s *weeklyRequirementStore) ListRequirements(ctx context.Context, tenantID string, weekStart time.Time) ([]model.ShiftRequirement, error) {
	var reqs []model.ShiftRequirement
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		Order("day_of_week ASC, shift_template_id ASC").
		Find(&reqs).Error
	return reqs, err
}

type recurringRequirementStore struct {
	db *gorm.DB
}

// NewRecurringRequirementStore team 工作区：该周没有专门配置时使用每周默认需求
func NewRecurringRequirementStore(db *gorm.DB) RequirementStore {
	return &recurringRequirementStore{db: db}
}

func (s *recurringRequirementStore) ListRequirements(ctx context.Context, tenantID string, weekStart time.Time) ([]model.ShiftRequirement, error) {
	var reqs []model.ShiftRequirement
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		Order("day_of_week ASC, shift_template_id ASC").
		Find(&reqs).Error
	if err != nil || len(reqs) > 0 {
		return reqs, err
	}

	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start IS NULL", tenantID).
		Order("day_of_week ASC, shift_template_id ASC").
		Find(&reqs).Error
	return reqs, err
}
