package dnsverify

import "context"

// Static is a Verifier substitute that returns a fixed outcome without
// touching the network. It exists for local development and tests only;
// wiring must refuse to select it in production environments.
type Static struct {
	// Err is returned from every Verify call. nil means every domain
	// verifies successfully.
	Err error
}

// Verify returns the configured outcome.
func (s Static) Verify(_ context.Context, _ string, _ Method, _ string) error {
	return s.Err
}
