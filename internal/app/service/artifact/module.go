package artifact

import "go.uber.org/fx"

// Module exposes the artifact renderer via Fx.
var Module = fx.Options(
	fx.Provide(NewRenderer),
)
