package certificate

import "go.uber.org/fx"

// Module exposes the certificate service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
