package dnsverify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Method selects the DNS proof mechanism for a domain.
type Method string

const (
	// MethodTXT expects the token in a TXT record at RecordPrefix.<domain>.
	MethodTXT Method = "dns_txt"
	// MethodCNAME expects <domain> to point at the canonical routing target.
	MethodCNAME Method = "dns_cname"
)

// RecordPrefix is the label under which TXT proof records are published.
const RecordPrefix = "_haunt-verify"

var (
	ErrLookupFailed   = errors.New("dnsverify: dns lookup failed")
	ErrRecordNotFound = errors.New("dnsverify: dns record not found")
	ErrRecordMismatch = errors.New("dnsverify: dns record does not contain expected value")
	ErrUnknownMethod  = errors.New("dnsverify: unknown verification method")
	ErrInvalidInput   = errors.New("dnsverify: empty domain or token")
)

// Verifier evaluates domain ownership proofs against DNS.
type Verifier struct {
	client      Client
	cnameTarget string
}

// New creates a Verifier. cnameTarget is the canonical routing host that
// CNAME proofs must point at (e.g. "edge.hauntsites.com").
func New(client Client, cnameTarget string) *Verifier {
	return &Verifier{
		client:      client,
		cnameTarget: normalizeTarget(cnameTarget),
	}
}

// TXTRecordName returns the fully qualified name at which the TXT proof
// record is expected for the given domain.
func TXTRecordName(domain string) string {
	return RecordPrefix + "." + strings.ToLower(strings.TrimSpace(domain))
}

// Verify checks the DNS proof for domain using the given method and token.
// A nil return means ownership is proven. See package docs for the
// distinction between the failure sentinels.
func (v *Verifier) Verify(ctx context.Context, domain string, method Method, token string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	token = strings.TrimSpace(token)
	if domain == "" || token == "" {
		return ErrInvalidInput
	}

	switch method {
	case MethodTXT:
		return v.verifyTXT(ctx, domain, token)
	case MethodCNAME:
		return v.verifyCNAME(ctx, domain)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func (v *Verifier) verifyTXT(ctx context.Context, domain, token string) error {
	records, err := v.client.LookupTXT(ctx, TXTRecordName(domain))
	if err != nil {
		return err
	}

	for _, record := range records {
		if strings.TrimSpace(record) == token {
			return nil
		}
	}

	return fmt.Errorf("%w: txt record at %s", ErrRecordMismatch, TXTRecordName(domain))
}

func (v *Verifier) verifyCNAME(ctx context.Context, domain string) error {
	target, err := v.client.LookupCNAME(ctx, domain)
	if err != nil {
		return err
	}

	// LookupCNAME may echo the queried name back when no CNAME exists.
	target = normalizeTarget(target)
	if target == "" || target == domain {
		return fmt.Errorf("%w: cname record at %s", ErrRecordNotFound, domain)
	}

	if target != v.cnameTarget {
		return fmt.Errorf("%w: cname points at %s", ErrRecordMismatch, target)
	}
	return nil
}

// normalizeTarget lowercases a DNS name and strips the trailing root dot.
func normalizeTarget(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}
