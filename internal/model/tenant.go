package model

import "time"

// WorkspaceKind 租户工作区类型，决定人员与需求的数据来源
type WorkspaceKind string

const (
	WorkspaceShop WorkspaceKind = "shop" // workers 表 + 按周需求
	WorkspaceTeam WorkspaceKind = "team" // tenant_members 表 + 周需求缺省时回落到每周默认需求
)

// Tenant 租户表 — 对应 tenants
type Tenant struct {
	TenantID            string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"tenant_id"`
	Name                string        `gorm:"type:varchar(100);not null"                     json:"name"`
	WorkspaceKind       WorkspaceKind `gorm:"type:varchar(20);not null;default:'shop'"       json:"workspace_kind"`
	AutoScheduleEnabled bool          `gorm:"not null;default:true"                          json:"auto_schedule_enabled"`
	CreatedAt           time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt           time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }
