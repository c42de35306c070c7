package model

import "time"

// Worker shop 工作区员工 — 对应 workers
type Worker struct {
	WorkerID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"worker_id"`
	TenantID string  `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Name     string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    *string `gorm:"type:varchar(200)"                              json:"email,omitempty"`
	IsActive bool    `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

func (Worker) TableName() string { return "workers" }

// 成员角色与状态
const (
	MemberRoleOwner = "owner"
	MemberRoleStaff = "staff"

	MemberStatusActive = "active"
)

// TenantMember team 工作区成员 — 对应 tenant_members
// 仅 role=staff 且 status=active 的成员参与排班
type TenantMember struct {
	MemberID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	TenantID    string    `gorm:"type:uuid;not null"                             json:"tenant_id"`
	UserID      string    `gorm:"type:uuid;not null"                             json:"user_id"`
	DisplayName string    `gorm:"type:varchar(100);not null"                     json:"display_name"`
	Role        string    `gorm:"type:varchar(20);not null;default:'staff'"      json:"role"`
	Status      string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (TenantMember) TableName() string { return "tenant_members" }

// RosterWorker 两种工作区统一后的排班人员视图
type RosterWorker struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
}
