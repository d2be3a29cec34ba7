package audit

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is what the dispatch worker reports per task outcome.
type Entry struct {
	TenantKind string
	TenantID   string
	Channel    string
	Address    string
	Outcome    string
	Error      string
	FunnelID   string
	StageID    string
	TaskID     string
	MessageLen int
	Detail     any
}

type Recorder struct {
	db   *gorm.DB
	node *snowflake.Node
}

type RecorderParams struct {
	fx.In

	DB   *gorm.DB
	Node *snowflake.Node
}

func NewRecorder(p RecorderParams) *Recorder {
	return &Recorder{db: p.DB, node: p.Node}
}

// Record appends one delivery log row. Audit is best-effort: a failed write
// is logged and swallowed so it can never affect task state.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	row := DeliveryLog{
		ID:         r.node.Generate().String(),
		TenantKind: e.TenantKind,
		TenantID:   e.TenantID,
		Channel:    e.Channel,
		Address:    e.Address,
		Outcome:    e.Outcome,
		Error:      e.Error,
		FunnelID:   e.FunnelID,
		StageID:    e.StageID,
		TaskID:     e.TaskID,
		MessageLen: e.MessageLen,
	}

	if e.Detail != nil {
		if raw, err := json.Marshal(e.Detail); err == nil {
			row.Detail = raw
		}
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		zap.L().Warn("[Audit] failed to write delivery log",
			zap.String("task_id", e.TaskID),
			zap.String("outcome", e.Outcome),
			zap.Error(err),
		)
	}
}
