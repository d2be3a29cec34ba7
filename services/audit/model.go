package audit

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryLog is the append-only audit record for one dispatch outcome.
// Rows link back to the funnel, stage and task so a tenant-facing listing
// can be built without touching worker internals.
type DeliveryLog struct {
	ID         string         `gorm:"column:log_id;primaryKey;type:char(26)"`
	TenantKind string         `gorm:"column:tenant_kind;type:varchar(10);not null;index:idx_log_tenant"`
	TenantID   string         `gorm:"column:tenant_id;not null;index:idx_log_tenant"`
	Channel    string         `gorm:"column:channel;type:varchar(20);not null"`
	Address    string         `gorm:"column:address;not null"` // redactable
	Outcome    string         `gorm:"column:outcome;type:varchar(30);not null"`
	Error      string         `gorm:"column:error;type:text"`
	FunnelID   string         `gorm:"column:funnel_id;not null"`
	StageID    string         `gorm:"column:stage_id;not null"`
	TaskID     string         `gorm:"column:task_id;not null;index"`
	MessageLen int            `gorm:"column:message_len;not null;default:0"`
	Detail     datatypes.JSON `gorm:"column:detail"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}
