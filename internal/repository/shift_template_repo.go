package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftly/backend/internal/model"
)

// ShiftTemplateRepository 班次模板数据访问接口（模板维护由外部管理端负责，这里只读）
type ShiftTemplateRepository interface {
	ListActive(ctx context.Context, tenantID string) ([]model.ShiftTemplate, error)
	ListAll(ctx context.Context, tenantID string) ([]model.ShiftTemplate, error)
}

type shiftTemplateRepo struct {
	db *gorm.DB
}

func NewShiftTemplateRepo(db *gorm.DB) ShiftTemplateRepository {
	return &shiftTemplateRepo{db: db}
}

func (r *shiftTemplateRepo) ListActive(ctx context.Context, tenantID string) ([]model.ShiftTemplate, error) {
	var templates []model.ShiftTemplate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("start_time ASC, shift_template_id ASC").
		Find(&templates).Error
	return templates, err
}

// ListAll 包含已停用（未软删除）的模板，导出历史排班时用于显示名称
func (r *shiftTemplateRepo) ListAll(ctx context.Context, tenantID string) ([]model.ShiftTemplate, error) {
	var templates []model.ShiftTemplate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("start_time ASC, shift_template_id ASC").
		Find(&templates).Error
	return templates, err
}
