// Package dnsverify proves ownership of custom domains through DNS records.
//
// Two proof methods are supported:
//
//   - TXT: the operator publishes the verification token as a TXT record at
//     "_haunt-verify.<domain>".
//   - CNAME: the operator points "<domain>" at the platform's canonical
//     routing target.
//
// Lookups go through an injectable Client so tests can substitute fixed
// responses. The production client queries pinned public resolvers rather
// than the local network's, so a spoofed local DNS cannot satisfy a proof.
//
// # Error Handling
//
// Verify distinguishes three failure classes:
//
//   - ErrRecordNotFound: the resolver answered, but no record exists. This
//     is an ordinary verification failure (the operator has not published
//     the record yet).
//   - ErrRecordMismatch: records exist but none carries the expected value.
//   - ErrLookupFailed: the lookup itself failed (timeout, network). This is
//     an infrastructure error and worth retrying; callers typically log it
//     separately from the two cases above.
//
// # Usage
//
//	verifier := dnsverify.New(dnsverify.NewClient(), "edge.hauntsites.com")
//	err := verifier.Verify(ctx, "haunt.example.com", dnsverify.MethodTXT, token)
package dnsverify
