package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"travelops-dispatch/pkg/config"
	"travelops-dispatch/services/audit"
	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/provider"
	"travelops-dispatch/services/schedule"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// OutcomeRetryPending is the audit outcome for a transient failure that left
// the task in the due set.
const OutcomeRetryPending = "retry_pending"

type CycleStats struct {
	Due         int `json:"due"`
	Sent        int `json:"sent"`
	Retried     int `json:"retried"`
	Failed      int `json:"failed"`
	Deactivated int `json:"deactivated"`
	ClaimMisses int `json:"claim_misses"`
}

const (
	outcomeNone        = ""
	outcomeSent        = "sent"
	outcomeRetried     = "retried"
	outcomeFailed      = "failed"
	outcomeDeactivated = "deactivated"
	outcomeClaimMiss   = "claim_miss"
)

// Worker runs dispatch cycles over the task table: scan due tasks, resolve
// credentials, send, and write outcomes back. One task's failure never stops
// the rest of the batch.
type Worker struct {
	db       *gorm.DB
	creds    *credential.Resolver
	senders  provider.Senders
	recorder *audit.Recorder
	enqueue  audit.Enqueuer

	batchSize   int
	concurrency int
	maxAttempts int
	sendTimeout time.Duration
	claimTTL    time.Duration

	now func() time.Time
}

type WorkerParams struct {
	fx.In

	DB       *gorm.DB
	Resolver *credential.Resolver
	Senders  provider.Senders
	Recorder *audit.Recorder
	Enqueuer audit.Enqueuer `optional:"true"`
	Config   *config.Config
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		db:          p.DB,
		creds:       p.Resolver,
		senders:     p.Senders,
		recorder:    p.Recorder,
		enqueue:     p.Enqueuer,
		batchSize:   p.Config.Dispatch.BatchSize,
		concurrency: p.Config.Dispatch.Concurrency,
		maxAttempts: p.Config.Dispatch.MaxAttempts,
		sendTimeout: p.Config.Dispatch.SendTimeout,
		// The claim lease must outlive the slowest send, or an overlapping
		// cycle would re-claim a task whose attempt is still in flight.
		claimTTL: p.Config.Dispatch.SendTimeout + time.Minute,
		now:      time.Now,
	}
}

// RunCycle processes every due task once. Safe to invoke concurrently with
// the timer (the manual ops trigger does exactly that): the per-task claim
// guarantees at most one in-flight attempt per task.
func (w *Worker) RunCycle(ctx context.Context) (CycleStats, error) {
	start := w.now()

	var due []schedule.Task
	if err := w.db.WithContext(ctx).
		Where("active = ? AND scheduled_at <= ?", true, start).
		Order("scheduled_at ASC").
		Limit(w.batchSize).
		Find(&due).Error; err != nil {
		return CycleStats{}, err
	}

	stats := CycleStats{Due: len(due)}
	if len(due) == 0 {
		return stats, nil
	}

	// Fresh cache per cycle; credentials can change between polls.
	cache := w.creds.CycleCache()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i := range due {
		task := due[i]
		g.Go(func() error {
			outcome := w.process(gctx, cache, &task)

			mu.Lock()
			switch outcome {
			case outcomeSent:
				stats.Sent++
			case outcomeRetried:
				stats.Retried++
			case outcomeFailed:
				stats.Failed++
			case outcomeDeactivated:
				stats.Deactivated++
			case outcomeClaimMiss:
				stats.ClaimMisses++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Best-effort archive of this cycle's audit rows. Failure to enqueue
	// must not affect anything the cycle already did.
	if w.enqueue != nil && stats.Sent+stats.Retried+stats.Failed+stats.Deactivated > 0 {
		if _, err := w.enqueue.Enqueue(audit.NewExportTask(audit.ExportPayload{Since: start})); err != nil {
			zap.L().Warn("[Dispatch] failed to enqueue audit export", zap.Error(err))
		}
	}

	return stats, nil
}

func (w *Worker) process(ctx context.Context, cache *credential.CycleCache, t *schedule.Task) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("[Dispatch] recovered panic while processing task",
				zap.String("task_id", t.ID),
				zap.Any("panic", r),
			)
			outcome = w.fail(ctx, t, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	if !w.claim(ctx, t) {
		return outcomeClaimMiss
	}

	if strings.TrimSpace(t.Address) == "" {
		w.deactivate(ctx, t, schedule.ResultNoAddress, "no recipient address")
		return outcomeDeactivated
	}

	ref := credential.TenantRef{Kind: t.TenantKind, ID: t.TenantID}
	creds, err := cache.Resolve(ctx, ref, t.Channel)
	if err != nil {
		if errors.Is(err, credential.ErrUnavailable) {
			// Missing configuration will not self-heal; do not burn
			// retry budget on it.
			w.deactivate(ctx, t, schedule.ResultNoCredentials, "no active messaging credentials for tenant")
			return outcomeDeactivated
		}
		zap.L().Error("[Dispatch] credential lookup failed, leaving task for next cycle",
			zap.String("task_id", t.ID),
			zap.Error(err),
		)
		w.update(ctx, t.ID, map[string]any{"claimed_at": nil})
		return outcomeNone
	}

	sender, ok := w.senders[t.Channel]
	if !ok {
		w.deactivate(ctx, t, schedule.ResultFailed, fmt.Sprintf("no sender configured for channel %s", t.Channel))
		return outcomeDeactivated
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	res, err := sender.Send(sendCtx, creds, t.Address, t.Body)
	cancel()
	if err != nil {
		return w.fail(ctx, t, err.Error(), res)
	}

	now := w.now()
	attempts := t.AttemptCount + 1
	w.update(ctx, t.ID, map[string]any{
		"active":          false,
		"result":          schedule.ResultSent,
		"attempt_count":   attempts,
		"last_error":      "",
		"last_attempt_at": now,
	})
	w.record(ctx, t, schedule.ResultSent, "", res)

	zap.L().Info("[Dispatch] message sent",
		zap.String("task_id", t.ID),
		zap.String("channel", string(t.Channel)),
		zap.String("tenant_id", t.TenantID),
		zap.Int("attempt", attempts),
	)
	return outcomeSent
}

// claim takes a lease on the task. RowsAffected == 0 means another worker
// holds an unexpired lease (or the task went inactive since the scan). A set
// claimed_at stays authoritative for the full lease window regardless of
// which cycle wrote it, so an overlapping manual cycle cannot re-send a task
// whose attempt is still in flight; expiry only covers workers that died
// mid-attempt. Non-terminal outcomes release the lease explicitly.
func (w *Worker) claim(ctx context.Context, t *schedule.Task) bool {
	res := w.db.WithContext(ctx).Model(&schedule.Task{}).
		Where("task_id = ? AND active = ? AND (claimed_at IS NULL OR claimed_at < ?)", t.ID, true, w.now().Add(-w.claimTTL)).
		Update("claimed_at", w.now())
	if res.Error != nil {
		zap.L().Error("[Dispatch] claim failed", zap.String("task_id", t.ID), zap.Error(res.Error))
		return false
	}
	return res.RowsAffected == 1
}

func (w *Worker) fail(ctx context.Context, t *schedule.Task, msg string, res *provider.SendResult) string {
	now := w.now()
	attempts := t.AttemptCount + 1

	if attempts >= w.maxAttempts {
		w.update(ctx, t.ID, map[string]any{
			"active":          false,
			"result":          schedule.ResultFailed,
			"attempt_count":   attempts,
			"last_error":      msg,
			"last_attempt_at": now,
		})
		w.record(ctx, t, schedule.ResultFailed, msg, res)
		zap.L().Warn("[Dispatch] task permanently failed",
			zap.String("task_id", t.ID),
			zap.Int("attempts", attempts),
			zap.String("error", msg),
		)
		return outcomeFailed
	}

	w.update(ctx, t.ID, map[string]any{
		"attempt_count":   attempts,
		"last_error":      msg,
		"last_attempt_at": now,
		"claimed_at":      nil,
	})
	w.record(ctx, t, OutcomeRetryPending, msg, res)
	zap.L().Warn("[Dispatch] send failed, will retry next cycle",
		zap.String("task_id", t.ID),
		zap.Int("attempt", attempts),
		zap.String("error", msg),
	)
	return outcomeRetried
}

// deactivate is the permanent-skip path: no attempt happened, so the attempt
// counter stays put.
func (w *Worker) deactivate(ctx context.Context, t *schedule.Task, result, reason string) {
	w.update(ctx, t.ID, map[string]any{
		"active":          false,
		"result":          result,
		"last_error":      reason,
		"last_attempt_at": w.now(),
	})
	w.record(ctx, t, result, reason, nil)
	zap.L().Warn("[Dispatch] task deactivated",
		zap.String("task_id", t.ID),
		zap.String("result", result),
		zap.String("reason", reason),
	)
}

func (w *Worker) update(ctx context.Context, taskID string, updates map[string]any) {
	if err := w.db.WithContext(ctx).Model(&schedule.Task{}).
		Where("task_id = ?", taskID).
		Updates(updates).Error; err != nil {
		zap.L().Error("[Dispatch] failed to update task", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (w *Worker) record(ctx context.Context, t *schedule.Task, outcome, errMsg string, res *provider.SendResult) {
	var detail any
	if res != nil {
		detail = res
	}
	w.recorder.Record(ctx, audit.Entry{
		TenantKind: string(t.TenantKind),
		TenantID:   t.TenantID,
		Channel:    string(t.Channel),
		Address:    t.Address,
		Outcome:    outcome,
		Error:      errMsg,
		FunnelID:   t.FunnelID,
		StageID:    t.StageID,
		TaskID:     t.ID,
		MessageLen: len(t.Body),
		Detail:     detail,
	})
}
