package consistency

import "go.uber.org/fx"

var Module = fx.Module("consistency",
	fx.Provide(NewGuard),
)
