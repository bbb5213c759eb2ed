package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrNotVendor          = errors.New("only vendors can activate subscription plans")
	ErrUserNotFound       = errors.New("user not found")
	ErrVendorInfoNotFound = errors.New("vendor info not found")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrVendorNotValidated = errors.New("account not verified by admin")
	ErrPlanNotFound       = errors.New("subscription plan not found")
	ErrFeatureNotFound    = errors.New(`feature "Free Monthly Certificates" not found`)
	ErrStatusNotFound     = errors.New("subscription status not found")
	// ErrNoRemainingCertificates is returned when the term's quota is fully
	// spent before any reservation is attempted.
	ErrNoRemainingCertificates = errors.New("no remaining certificates, save as draft or upgrade plan")
)

// CapacityError reports a reservation that exceeds the remaining quota. It
// carries the exact remaining count so callers can surface it.
type CapacityError struct {
	Remaining int
}

func (e *CapacityError) Error() string {
	if e.Remaining == 1 {
		return "you have only 1 certificate available"
	}
	return fmt.Sprintf("you have only %d certificates available", e.Remaining)
}
