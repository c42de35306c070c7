package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shiftly/backend/internal/model"
)

// AvailabilityRepository 可用时间数据访问接口
type AvailabilityRepository interface {
	ListByWeek(ctx context.Context, tenantID string, weekStart time.Time) ([]model.AvailabilityEntry, error)
	ListByWorkerAndWeek(ctx context.Context, tenantID, workerID string, weekStart time.Time) ([]model.AvailabilityEntry, error)
	ListSubmittedWorkerIDs(ctx context.Context, tenantID string, weekStart time.Time) ([]string, error)
	ReplaceSelfSubmitted(ctx context.Context, tenantID, workerID string, weekStart time.Time, entries []model.AvailabilityEntry) error
	DeleteSelfSubmitted(ctx context.Context, tenantID, workerID string, weekStart time.Time) (int64, error)
	UpsertOverride(ctx context.Context, entry *model.AvailabilityEntry) error
}

type availabilityRepo struct {
	db *gorm.DB
}

func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) ListByWeek(ctx context.Context, tenantID string, weekStart time.Time) ([]model.AvailabilityEntry, error) {
	var entries []model.AvailabilityEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		Order("worker_id ASC, day_of_week ASC, shift_template_id ASC, owner_override ASC").
		Find(&entries).Error
	return entries, err
}

func (r *availabilityRepo) ListByWorkerAndWeek(ctx context.Context, tenantID, workerID string, weekStart time.Time) ([]model.AvailabilityEntry, error) {
	var entries []model.AvailabilityEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND worker_id = ? AND week_start = ?", tenantID, workerID, weekStart).
		Order("day_of_week ASC, shift_template_id ASC, owner_override ASC").
		Find(&entries).Error
	return entries, err
}

// ListSubmittedWorkerIDs 本周至少有一条记录（含店主代填）的人员
func (r *availabilityRepo) ListSubmittedWorkerIDs(ctx context.Context, tenantID string, weekStart time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.AvailabilityEntry{}).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		Distinct().
		Pluck("worker_id", &ids).Error
	return ids, err
}

// ReplaceSelfSubmitted 在一个事务内替换本人提交的记录，店主代填的记录保持不变
func (r *availabilityRepo) ReplaceSelfSubmitted(ctx context.Context, tenantID, workerID string, weekStart time.Time, entries []model.AvailabilityEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("tenant_id = ? AND worker_id = ? AND week_start = ? AND owner_override = ?", tenantID, workerID, weekStart, false).
			Delete(&model.AvailabilityEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *availabilityRepo) DeleteSelfSubmitted(ctx context.Context, tenantID, workerID string, weekStart time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND worker_id = ? AND week_start = ? AND owner_override = ?", tenantID, workerID, weekStart, false).
		Delete(&model.AvailabilityEntry{})
	return result.RowsAffected, result.Error
}

// UpsertOverride 店主代填，同一格重复代填时覆盖
func (r *availabilityRepo) UpsertOverride(ctx context.Context, entry *model.AvailabilityEntry) error {
	entry.OwnerOverride = true
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "worker_id"}, {Name: "week_start"}, {Name: "shift_template_id"},
				{Name: "day_of_week"}, {Name: "owner_override"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "submitted_by", "override_reason", "updated_at"}),
		}).
		Create(entry).Error
}
