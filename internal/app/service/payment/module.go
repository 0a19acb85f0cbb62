package payment

import "go.uber.org/fx"

// Module exposes the payment store and lifecycle service via Fx.
var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Provide(NewService),
)
