package webhook

import "go.uber.org/fx"

// Module exposes the webhook dispatcher via Fx.
var Module = fx.Options(
	fx.Provide(NewDispatcher),
)
