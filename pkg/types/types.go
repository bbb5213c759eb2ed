package types

// UserRole is the closed set of account kinds known to the system.
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleVendor UserRole = "vendor"
	UserRoleUser   UserRole = "user"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleVendor, UserRoleUser:
		return true
	}
	return false
}

// CertificateStatus is the lifecycle state of a single minted certificate.
type CertificateStatus int

const (
	CertificateStatusActive   CertificateStatus = 1
	CertificateStatusReissued CertificateStatus = 2
)

// Principal is the authenticated caller attached to every request by the
// auth middleware. Token issuance lives outside this service.
type Principal struct {
	ID    uint     `json:"id"`
	Role  UserRole `json:"role"`
	Email string   `json:"email"`
}

func (p *Principal) IsVendor() bool { return p != nil && p.Role == UserRoleVendor }
func (p *Principal) IsAdmin() bool  { return p != nil && p.Role == UserRoleAdmin }
func (p *Principal) IsUser() bool   { return p != nil && p.Role == UserRoleUser }

// PlanFeatureMonthlyCertificates is the plan feature whose value sets the
// issuance grant on activation.
const PlanFeatureMonthlyCertificates = "Free Monthly Certificates"
