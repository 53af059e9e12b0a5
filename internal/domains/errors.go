package domains

import "errors"

// Sentinel errors returned by the lifecycle operations. They fall into
// three caller-facing categories (validation, conflict, not-found) exposed
// through the Is* helpers so transport layers can map them to status codes
// without enumerating individual sentinels.
var (
	ErrInvalidDomainName  = errors.New("domains: invalid domain name")
	ErrReservedSubdomain  = errors.New("domains: subdomain label is reserved")
	ErrDomainAlreadyAdded = errors.New("domains: domain already added to this storefront")
	ErrDomainTaken        = errors.New("domains: domain registered to another attraction")
	ErrBindingNotFound    = errors.New("domains: domain binding not found")
	ErrVerificationFailed = errors.New("domains: dns verification failed")
	ErrNotVerified        = errors.New("domains: cannot set unverified domain as primary")
	ErrSubdomainImmutable = errors.New("domains: cannot delete auto-generated subdomain")
	ErrPrimaryInUse       = errors.New("domains: set another domain as primary first")
	ErrVerifyThrottled    = errors.New("domains: verification attempted too recently")

	// ErrPrimaryContested reports a promotion that lost to a concurrent
	// primary change for the same tenant. Retrying resolves it.
	ErrPrimaryContested = errors.New("domains: primary domain changed concurrently")

	// ErrConcurrentVerification is returned by Store.Update when a write
	// would demote a binding that another request activated in the
	// meantime. The service absorbs it; API callers never see it.
	ErrConcurrentVerification = errors.New("domains: binding activated concurrently")
)

var validationErrs = []error{
	ErrInvalidDomainName,
	ErrReservedSubdomain,
	ErrVerificationFailed,
	ErrNotVerified,
	ErrSubdomainImmutable,
	ErrPrimaryInUse,
	ErrVerifyThrottled,
}

// IsValidation reports whether err is an actionable caller mistake:
// malformed input, a forbidden transition, or a failed DNS proof.
func IsValidation(err error) bool {
	for _, sentinel := range validationErrs {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err is a lost race with another writer: the
// domain is already bound, or a concurrent primary change won.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDomainAlreadyAdded) ||
		errors.Is(err, ErrDomainTaken) ||
		errors.Is(err, ErrPrimaryContested)
}

// IsNotFound reports whether err means the referenced binding does not
// exist within the caller's attraction scope.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBindingNotFound)
}
