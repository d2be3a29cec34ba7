package dispatch

import (
	"go.uber.org/fx"
)

var Module = fx.Module("dispatch.module",
	fx.Provide(
		NewWorker,
		NewScheduler,
	),
	fx.Invoke(StartScheduler),
)
