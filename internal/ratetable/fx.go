package ratetable

import "go.uber.org/fx"

var Module = fx.Module("ratetable",
	fx.Provide(NewHolder),
	fx.Provide(func(h *Holder) Provider { return h }),
)
