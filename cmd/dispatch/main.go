package main

import (
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	asynqmod "travelops-dispatch/pkg/asynq"
	"travelops-dispatch/pkg/config"
	"travelops-dispatch/pkg/db"
	"travelops-dispatch/pkg/gen"
	"travelops-dispatch/pkg/health"
	"travelops-dispatch/pkg/logger"
	"travelops-dispatch/pkg/minio"
	"travelops-dispatch/pkg/redis"

	"travelops-dispatch/internal/httpapi"
	"travelops-dispatch/internal/server"

	"travelops-dispatch/services/audit"
	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/dispatch"
	"travelops-dispatch/services/funnel"
	"travelops-dispatch/services/recipient"
	"travelops-dispatch/services/schedule"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		minio.Client,
		asynqmod.Client,
		asynqmod.Server,
		health.Module,

		funnel.Module,
		recipient.Module,
		credential.Module,
		schedule.Module,
		dispatch.Module,
		audit.Module,
		fx.Provide(
			httpapi.NewHandler,
			httpapi.ProvideEngine,
			server.ProvideHTTPServer,
		),
		fx.Invoke(
			migrate,
			registerAuditHandlers,
			server.Run,
		),
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(
		&schedule.Task{},
		&audit.DeliveryLog{},
	); err != nil {
		zap.L().Fatal("failed to migrate dispatch tables", zap.Error(err))
	}
}

func registerAuditHandlers(mux *asynq.ServeMux, exporter *audit.Exporter) {
	mux.HandleFunc(audit.TaskExport, exporter.HandleExport)
}
