package funnel

import (
	"go.uber.org/fx"
)

var Module = fx.Module("funnel.module",
	fx.Provide(NewService),
)
