package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"travelops-dispatch/pkg/config"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Exporter archives delivery logs as JSON-lines objects. It runs on the
// asynq side channel; an export failure is retried by asynq and never
// touches task state.
type Exporter struct {
	db     *gorm.DB
	minio  *minio.Client
	bucket string
}

type ExporterParams struct {
	fx.In

	DB     *gorm.DB
	Minio  *minio.Client `optional:"true"`
	Config *config.Config
}

func NewExporter(p ExporterParams) *Exporter {
	return &Exporter{
		db:     p.DB,
		minio:  p.Minio,
		bucket: p.Config.Minio.BucketName,
	}
}

func (e *Exporter) HandleExport(ctx context.Context, t *asynq.Task) error {
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("invalid audit export payload", zap.Error(err))
		return err
	}

	if e.minio == nil {
		zap.L().Debug("audit export skipped, no archive client configured")
		return nil
	}

	var logs []DeliveryLog
	if err := e.db.WithContext(ctx).
		Where("created_at >= ?", payload.Since).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range logs {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}

	objectName := fmt.Sprintf("delivery-logs/%s.jsonl", payload.Since.UTC().Format("2006/01/02/150405"))
	_, err := e.minio.PutObject(ctx, e.bucket, objectName, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return err
	}

	zap.L().Info("archived delivery logs",
		zap.String("object", objectName),
		zap.Int("count", len(logs)),
	)
	return nil
}
