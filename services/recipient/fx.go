package recipient

import (
	"go.uber.org/fx"
)

var Module = fx.Module("recipient.module",
	fx.Provide(NewService),
)
