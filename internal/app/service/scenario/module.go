package scenario

import "go.uber.org/fx"

// Module exposes the scenario resolver via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
