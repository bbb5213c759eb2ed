package mail

import (
	"go.uber.org/fx"
)

// Mailer is the outbound notification contract. Batch-archive delivery is
// load-bearing: issuance treats its failure as a hard failure and rolls the
// whole transaction back, so implementations must not swallow errors.
type Mailer interface {
	SendBatchArchive(to string, archive []byte) error
}

var Module = fx.Options(
	fx.Provide(NewSMTPMailer),
)
