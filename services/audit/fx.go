package audit

import (
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.module",
	fx.Provide(
		NewRecorder,
		NewExporter,
		provideEnqueuer,
	),
)

func provideEnqueuer(client *asynq.Client) Enqueuer {
	return client
}
