package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shiftly/backend/internal/model"
)

// TriggerRepository 自动排班触发记录数据访问接口
type TriggerRepository interface {
	InsertIfAbsent(ctx context.Context, trigger *model.ScheduleTrigger) (bool, error)
	Release(ctx context.Context, tenantID string, weekStart time.Time, generationID string) error
	Get(ctx context.Context, tenantID string, weekStart time.Time) (*model.ScheduleTrigger, error)
}

type triggerRepo struct {
	db *gorm.DB
}

func NewTriggerRepo(db *gorm.DB) TriggerRepository {
	return &triggerRepo{db: db}
}

// InsertIfAbsent INSERT … ON CONFLICT DO NOTHING；影响行数为 0 表示本周已触发过
func (r *triggerRepo) InsertIfAbsent(ctx context.Context, trigger *model.ScheduleTrigger) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(trigger)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release 删除尚未消费、且归属该 generation 的触发记录
func (r *triggerRepo) Release(ctx context.Context, tenantID string, weekStart time.Time, generationID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ? AND generation_id = ? AND consumed_at IS NULL", tenantID, weekStart, generationID).
		Delete(&model.ScheduleTrigger{}).Error
}

func (r *triggerRepo) Get(ctx context.Context, tenantID string, weekStart time.Time) (*model.ScheduleTrigger, error) {
	var trigger model.ScheduleTrigger
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND week_start = ?", tenantID, weekStart).
		First(&trigger).Error
	if err != nil {
		return nil, err
	}
	return &trigger, nil
}
