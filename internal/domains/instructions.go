package domains

import (
	"fmt"

	"github.com/hauntworks/platform/pkg/dnsverify"
)

// SetupInstructions tells an operator exactly which DNS record to create
// for a pending custom domain. Returned from AddDomain and rendered by the
// dashboard as-is.
type SetupInstructions struct {
	Method      dnsverify.Method `json:"method"`
	RecordType  string           `json:"record_type"`
	RecordName  string           `json:"record_name"`
	RecordValue string           `json:"record_value"`
	Message     string           `json:"message"`
}

// Instructions builds the DNS setup instructions for a binding. Returns
// nil for subdomain bindings, which never need operator action.
func (s *Service) Instructions(b *Binding) *SetupInstructions {
	if b.Type != TypeCustom {
		return nil
	}

	switch b.Method {
	case dnsverify.MethodCNAME:
		return &SetupInstructions{
			Method:      b.Method,
			RecordType:  "CNAME",
			RecordName:  b.Domain,
			RecordValue: s.cfg.CNAMETarget,
			Message: fmt.Sprintf(
				"Create a CNAME record for %s pointing at %s, then request verification. DNS changes can take up to an hour to propagate.",
				b.Domain, s.cfg.CNAMETarget,
			),
		}
	default:
		return &SetupInstructions{
			Method:      b.Method,
			RecordType:  "TXT",
			RecordName:  dnsverify.TXTRecordName(b.Domain),
			RecordValue: b.VerificationToken,
			Message: fmt.Sprintf(
				"Create a TXT record named %s with the value %q, then request verification. DNS changes can take up to an hour to propagate.",
				dnsverify.TXTRecordName(b.Domain), b.VerificationToken,
			),
		}
	}
}
