package dnsverify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"
)

// Client performs raw DNS lookups. Implementations must return an error
// satisfying errors.Is(err, ErrRecordNotFound) when the resolver answers
// with no data, as opposed to failing to answer at all.
type Client interface {
	LookupTXT(ctx context.Context, host string) ([]string, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// DefaultResolvers are public resolvers queried when none are configured.
var DefaultResolvers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// resolverClient queries pinned public resolvers, rotating across them
// per lookup. Using external resolvers instead of the host's configured
// ones prevents a locally spoofed DNS from passing verification.
type resolverClient struct {
	resolver *net.Resolver
}

// NewClient creates a Client that queries the given resolver addresses
// (host:port). With no arguments, DefaultResolvers are used.
func NewClient(resolvers ...string) Client {
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers
	}

	var next atomic.Uint64
	dial := func(ctx context.Context, network, _ string) (net.Conn, error) {
		d := net.Dialer{Timeout: 5 * time.Second}
		addr := resolvers[next.Add(1)%uint64(len(resolvers))]
		return d.DialContext(ctx, network, addr)
	}

	return &resolverClient{
		resolver: &net.Resolver{PreferGo: true, Dial: dial},
	}
}

func (c *resolverClient) LookupTXT(ctx context.Context, host string) ([]string, error) {
	records, err := c.resolver.LookupTXT(ctx, host)
	if err != nil {
		return nil, classifyLookupError(err)
	}
	return records, nil
}

func (c *resolverClient) LookupCNAME(ctx context.Context, host string) (string, error) {
	target, err := c.resolver.LookupCNAME(ctx, host)
	if err != nil {
		return "", classifyLookupError(err)
	}
	return target, nil
}

// classifyLookupError separates "the record does not exist" from transport
// failures. NXDOMAIN and empty answers surface as ErrRecordNotFound;
// everything else (timeouts, refused, network errors) as ErrLookupFailed.
func classifyLookupError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, strings.TrimSpace(dnsErr.Name))
		}
	}
	return errors.Join(ErrLookupFailed, err)
}
