package schedule

import (
	"time"

	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/funnel"
	"travelops-dispatch/services/recipient"
)

// Terminal results. A task with Active=false always carries one of these.
// "failed-transient" has no terminal value: a transiently failed task stays
// active with its last_error recorded and re-enters the due set next cycle.
const (
	ResultSent          = "sent"
	ResultFailed        = "failed_permanent"
	ResultNoCredentials = "skipped_no_credentials"
	ResultNoAddress     = "skipped_no_address"
)

// Task is one concrete scheduled message for one recipient, snapshotted at
// trigger time. Created by the materializer, mutated only by the dispatch
// worker, never deleted.
type Task struct {
	ID            string                `gorm:"column:task_id;primaryKey;type:char(26)"`
	FunnelID      string                `gorm:"column:funnel_id;not null;uniqueIndex:idx_task_trigger"`
	StageID       string                `gorm:"column:stage_id;not null;uniqueIndex:idx_task_trigger"`
	StageNo       int                   `gorm:"column:stage_no;not null"`
	GroupID       string                `gorm:"column:group_id;not null;uniqueIndex:idx_task_trigger"`
	RecipientKind recipient.Kind        `gorm:"column:recipient_kind;type:varchar(10);not null;uniqueIndex:idx_task_trigger"`
	RecipientID   string                `gorm:"column:recipient_id;not null;uniqueIndex:idx_task_trigger"`
	TenantKind    credential.TenantKind `gorm:"column:tenant_kind;type:varchar(10);not null;index:idx_task_tenant"`
	TenantID      string                `gorm:"column:tenant_id;not null;index:idx_task_tenant"`
	Channel       funnel.Channel        `gorm:"column:channel;type:varchar(20);not null"`
	Address       string                `gorm:"column:address;not null"`
	Body          string                `gorm:"column:body;type:text;not null"`
	ScheduledAt   time.Time             `gorm:"column:scheduled_at;not null;index:idx_task_due"`
	Active        bool                  `gorm:"column:active;default:true;index:idx_task_due"`
	AttemptCount  int                   `gorm:"column:attempt_count;not null;default:0"`
	LastError     string                `gorm:"column:last_error;type:text"`
	LastAttemptAt *time.Time            `gorm:"column:last_attempt_at"`
	Result        string                `gorm:"column:result;type:varchar(30)"`
	ClaimedAt     *time.Time            `gorm:"column:claimed_at"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Task) TableName() string {
	return "dispatch_tasks"
}
