package domains

import "context"

// Store is the persistence boundary for domain bindings. It is a thin
// mechanism: policy checks live in Service, while the store carries the
// constraint mechanics that check-then-act cannot make atomic (the unique
// domain index, the single-primary swap, the guarded delete).
//
// Lookups other than GetByDomain are scoped by tenant id so one
// attraction can never observe another's bindings.
type Store interface {
	// Create inserts a new binding. A domain already present anywhere in
	// the store yields ErrDomainTaken.
	Create(ctx context.Context, b *Binding) error

	// GetByID returns the binding with the given id owned by tenantID,
	// or ErrBindingNotFound.
	GetByID(ctx context.Context, tenantID, id string) (*Binding, error)

	// GetByDomain looks a domain up across all tenants. Used only for the
	// add-time uniqueness check and public resolution.
	GetByDomain(ctx context.Context, domain string) (*Binding, error)

	// GetActiveByDomain is GetByDomain restricted to active bindings.
	GetActiveByDomain(ctx context.Context, domain string) (*Binding, error)

	// ListByTenant returns all bindings of an attraction, subdomain first,
	// then by creation time.
	ListByTenant(ctx context.Context, tenantID string) ([]Binding, error)

	// SubdomainByTenant returns the attraction's subdomain-type binding,
	// or ErrBindingNotFound if it was never provisioned.
	SubdomainByTenant(ctx context.Context, tenantID string) (*Binding, error)

	// PrimaryByTenant returns the attraction's primary binding, or
	// ErrBindingNotFound.
	PrimaryByTenant(ctx context.Context, tenantID string) (*Binding, error)

	// HasActiveCustomDomain reports whether the attraction holds at least
	// one active custom-type binding.
	HasActiveCustomDomain(ctx context.Context, tenantID string) (bool, error)

	// Update persists mutable verification fields (status, ssl status,
	// verified/checked timestamps) of an existing binding. An active
	// binding is never demoted: writing a non-active status over a row
	// that is active yields ErrConcurrentVerification and leaves the row
	// untouched.
	Update(ctx context.Context, b *Binding) error

	// SetPrimary atomically clears the primary flag across the tenant's
	// bindings and sets it on the target. Fails with ErrNotVerified if the
	// target is not active, ErrBindingNotFound if it does not exist. No
	// interleaving with a concurrent SetPrimary may yield zero or two
	// primaries.
	SetPrimary(ctx context.Context, tenantID, id string) error

	// Delete removes a binding. Deleting a primary succeeds only when it
	// is the tenant's sole binding, evaluated atomically with the delete;
	// otherwise ErrPrimaryInUse.
	Delete(ctx context.Context, tenantID, id string) error
}
