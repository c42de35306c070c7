package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftly/backend/internal/model"
)

// TenantRepository 租户数据访问接口
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", id).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
