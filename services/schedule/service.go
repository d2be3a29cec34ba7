package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"travelops-dispatch/pkg/config"
	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/funnel"
	"travelops-dispatch/services/recipient"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result reports a materialization outcome. Zero scheduled tasks is valid;
// SkipReason says why when nothing was created.
type Result struct {
	Scheduled  int    `json:"scheduled"`
	SkipReason string `json:"skip_reason,omitempty"`
}

type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	funnels *funnel.Service

	loc             *time.Location
	defaultSendTime string
}

type ServiceParams struct {
	fx.In

	DB      *gorm.DB
	Node    *snowflake.Node
	Funnels *funnel.Service
	Config  *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:              p.DB,
		node:            p.Node,
		funnels:         p.Funnels,
		loc:             p.Config.Location(),
		defaultSendTime: p.Config.Dispatch.DefaultSendTime,
	}
}

// Materialize expands every funnel bound to the trigger's group into concrete
// dated tasks. Channels are evaluated independently: a missing phone skips
// the sms funnels but never the email ones. Safe to re-invoke for the same
// trigger; already-scheduled stages are not duplicated.
func (s *Service) Materialize(ctx context.Context, ev *recipient.TriggerEvent) (Result, error) {
	bound, err := s.funnels.BoundFunnels(ctx, ev.GroupID)
	if err != nil {
		return Result{}, err
	}
	if len(bound) == 0 {
		zap.L().Info("[Materialize] no funnels bound to group",
			zap.String("group_id", ev.GroupID),
			zap.String("recipient_id", ev.RecipientID),
		)
		return Result{SkipReason: "no funnels bound to group"}, nil
	}

	byChannel := funnel.ByChannel(bound)

	addresses := make(map[funnel.Channel]string, len(byChannel))
	for ch := range byChannel {
		addr, ok := recipient.Resolve(ev, ch)
		if !ok {
			zap.L().Info("[Materialize] no usable address for channel, skipping its funnels",
				zap.String("channel", string(ch)),
				zap.String("recipient_id", ev.RecipientID),
			)
			continue
		}
		addresses[ch] = addr
	}
	if len(addresses) == 0 {
		return Result{SkipReason: "no usable address for any bound channel"}, nil
	}

	created := 0
	for ch, funnels := range byChannel {
		addr, ok := addresses[ch]
		if !ok {
			continue
		}

		for _, f := range funnels {
			for _, stage := range f.Stages {
				at, err := s.scheduledAt(stage, ev.OccurredAt)
				if err != nil {
					zap.L().Warn("[Materialize] skipping malformed stage",
						zap.String("funnel_id", f.ID),
						zap.String("stage_id", stage.ID),
						zap.Error(err),
					)
					continue
				}

				task := Task{
					ID:            s.node.Generate().String(),
					FunnelID:      f.ID,
					StageID:       stage.ID,
					StageNo:       stage.StageNo,
					GroupID:       ev.GroupID,
					RecipientKind: ev.RecipientKind,
					RecipientID:   ev.RecipientID,
					TenantKind:    ev.Tenant.Kind,
					TenantID:      ev.Tenant.ID,
					Channel:       ch,
					Address:       addr,
					Body:          renderBody(stage.Body, ev),
					ScheduledAt:   at,
					Active:        true,
				}

				n, err := s.insertOnce(ctx, &task)
				if err != nil {
					return Result{Scheduled: created}, err
				}
				created += n
			}
		}
	}

	return Result{Scheduled: created}, nil
}

// insertOnce creates the task unless the (funnel, stage, recipient, group)
// combination already has one. The unique index backs the existence check so
// concurrent retries of the triggering transaction cannot double-insert.
func (s *Service) insertOnce(ctx context.Context, task *Task) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Task{}).
		Where("funnel_id = ? AND stage_id = ? AND recipient_kind = ? AND recipient_id = ? AND group_id = ?",
			task.FunnelID, task.StageID, task.RecipientKind, task.RecipientID, task.GroupID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(task)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// scheduledAt computes the send instant for a stage relative to the trigger.
// Day-zero stages whose time already passed move forward exactly one day;
// later stages keep their computed instant even when it is in the past.
func (s *Service) scheduledAt(stage funnel.FunnelStage, trigger time.Time) (time.Time, error) {
	if stage.DaysAfter < 0 {
		return time.Time{}, fmt.Errorf("negative days_after %d", stage.DaysAfter)
	}
	if strings.TrimSpace(stage.Body) == "" {
		return time.Time{}, fmt.Errorf("empty body for stage %d", stage.StageNo)
	}

	sendTime := s.defaultSendTime
	if stage.SendTime != nil && *stage.SendTime != "" {
		sendTime = *stage.SendTime
	}
	tod, err := time.Parse("15:04", sendTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid send_time %q: %w", sendTime, err)
	}

	day := trigger.In(s.loc).AddDate(0, 0, stage.DaysAfter)
	at := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, s.loc)

	if stage.DaysAfter == 0 && at.Before(trigger) {
		at = at.AddDate(0, 0, 1)
	}

	return at, nil
}

// ListByTenant returns a tenant's scheduled messages, newest first. Feeds the
// ops listing endpoint.
func (s *Service) ListByTenant(ctx context.Context, kind credential.TenantKind, tenantID string, limit int) ([]Task, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var tasks []Task
	if err := s.db.WithContext(ctx).
		Where("tenant_kind = ? AND tenant_id = ?", kind, tenantID).
		Order("scheduled_at DESC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
