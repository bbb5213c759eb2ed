package certificate

import "errors"

var (
	ErrNotVendor              = errors.New("only vendors can issue certificates")
	ErrNotConsumer            = errors.New("only users can view owned certificates")
	ErrVendorNotVerified      = errors.New("account not verified yet, contact the admin")
	ErrNoActiveSubscription   = errors.New("no active subscription plan")
	ErrSubscriptionExpired    = errors.New("subscription plan expired, upgrade to continue")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrBatchNotFound          = errors.New("certificate batch not found")
	ErrCertificateNotFound    = errors.New("certificate not found")
	ErrCertificateUnavailable = errors.New("certificate no longer available for scanning")
	ErrAlreadyOwner           = errors.New("already the owner of this certificate")
	ErrAlreadyReissued        = errors.New("certificate was already re-issued")
	// ErrTransferConflict means a concurrent scan claimed the certificate
	// between this transaction's read and its write.
	ErrTransferConflict  = errors.New("ownership changed concurrently, scan again")
	ErrInvalidPagination = errors.New("page and limit must be greater than 0")
)
