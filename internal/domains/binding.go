package domains

import (
	"time"

	"github.com/hauntworks/platform/pkg/dnsverify"
)

// DomainType distinguishes platform-issued subdomains from operator-owned
// custom domains.
type DomainType string

const (
	// TypeSubdomain is the platform-issued binding under the platform's
	// own DNS zone. Created once per attraction, never deletable.
	TypeSubdomain DomainType = "subdomain"
	// TypeCustom is an operator-supplied domain requiring DNS proof of
	// ownership before it activates.
	TypeCustom DomainType = "custom"
)

// Status is the verification state of a binding. Only active bindings
// participate in public resolution.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusFailed  Status = "failed"
)

// SSLStatus tracks certificate provisioning for a binding. It is advisory:
// certificate automation lives outside this engine, which only records the
// state an external integration reports.
type SSLStatus string

const (
	SSLPending      SSLStatus = "pending"
	SSLProvisioning SSLStatus = "provisioning"
	SSLActive       SSLStatus = "active"
)

// Binding maps a hostname to the attraction that owns it.
//
// Invariants maintained by Service and backed by store constraints:
//   - Domain is globally unique across all attractions.
//   - Exactly one subdomain-type binding per attraction.
//   - At most one binding per attraction has IsPrimary set, and that
//     binding is active.
type Binding struct {
	ID       string
	TenantID string
	// Domain is stored lowercase; it is the only natural key.
	Domain    string
	Type      DomainType
	IsPrimary bool
	Status    Status
	SSLStatus SSLStatus
	// Method is fixed at creation for custom domains; empty for subdomains.
	Method dnsverify.Method
	// VerificationToken is the proof value derived from the attraction id.
	VerificationToken string
	// VerifiedAt is set on the first successful transition to active.
	VerifiedAt *time.Time
	// LastCheckedAt records the most recent verification attempt, used by
	// the optional re-verify cooldown.
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the binding participates in public resolution.
func (b *Binding) IsActive() bool {
	return b.Status == StatusActive
}
