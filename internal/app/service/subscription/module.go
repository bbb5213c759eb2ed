package subscription

import "go.uber.org/fx"

// Module exposes the subscription service and its expiry sweeper via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(NewSweeper),
	fx.Invoke(registerSweeper),
)
