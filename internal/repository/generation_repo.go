package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shiftly/backend/internal/model"
)

// ErrTriggerNotHeld 提交时触发记录已不属于本次生成（被释放或已消费）
var ErrTriggerNotHeld = errors.New("触发记录不属于本次生成")

// GenerationRepository 排班生成记录数据访问接口
type GenerationRepository interface {
	Record(ctx context.Context, gen *model.ScheduleGeneration, assignments []model.ScheduleAssignment, consumeTrigger bool) error
	GetByID(ctx context.Context, tenantID, id string) (*model.ScheduleGeneration, error)
	GetLatest(ctx context.Context, tenantID string, weekStart time.Time) (*model.ScheduleGeneration, error)
	ListByWeek(ctx context.Context, tenantID string, weekStart time.Time) ([]model.ScheduleGeneration, error)
}

type generationRepo struct {
	db *gorm.DB
}

func NewGenerationRepo(db *gorm.DB) GenerationRepository {
	return &generationRepo{db: db}
}

// Record 单事务提交一次生成：
//  0. 取 (租户, 周) 事务级咨询锁，同一周的提交串行执行
//  1. 删除本周非手工调整的排班
//  2. 写入生成记录
//  3. 写入新排班
//  4. consumeTrigger 为 true 时将触发记录标记为已消费
func (r *generationRepo) Record(ctx context.Context, gen *model.ScheduleGeneration, assignments []model.ScheduleAssignment, consumeTrigger bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", weekLockKey(gen.TenantID, gen.WeekStart)).Error; err != nil {
			return err
		}

		if err := tx.
			Where("tenant_id = ? AND week_start = ? AND manually_edited = ?", gen.TenantID, gen.WeekStart, false).
			Delete(&model.ScheduleAssignment{}).Error; err != nil {
			return err
		}

		if err := tx.Create(gen).Error; err != nil {
			return err
		}

		if len(assignments) > 0 {
			if err := tx.CreateInBatches(&assignments, 200).Error; err != nil {
				return err
			}
		}

		if !consumeTrigger {
			return nil
		}
		result := tx.Model(&model.ScheduleTrigger{}).
			Where("tenant_id = ? AND week_start = ? AND generation_id = ? AND consumed_at IS NULL", gen.TenantID, gen.WeekStart, gen.GenerationID).
			Update("consumed_at", gen.AcceptedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTriggerNotHeld
		}
		return nil
	})
}

func weekLockKey(tenantID string, weekStart time.Time) string {
	return "schedule_week:" + tenantID + ":" + weekStart.Format("2006-01-02")
}

func (r *generationRepo) GetByID(ctx context.Context, tenantID, id string) (*model.ScheduleGeneration, error) {
	var gen model.ScheduleGeneration
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND generation_id = ?", tenantID, id).
		First(&gen).Error
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

func (r *generationRepo) GetLatest(ctx context.Context, tenantID string, weekStart time.Time) (*model.ScheduleGeneration, error) {
	var gen model.ScheduleGeneration
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		Order("created_at DESC").
		First(&gen).Error
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// ListByWeek 历史生成记录，最新在前
func (r *generationRepo) ListByWeek(ctx context.Context, tenantID string, weekStart time.Time) ([]model.ScheduleGeneration, error) {
	var gens []model.ScheduleGeneration
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		Order("created_at DESC").
		Find(&gens).Error
	return gens, err
}
