package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/pkg/db"
	"github.com/hauntworks/platform/pkg/dnsverify"
)

const bindingColumns = `id, tenant_id, domain, domain_type, is_primary, status, ssl_status,
	verification_method, verification_token, verified_at, last_checked_at, created_at, updated_at`

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*domains.Binding, error) {
	var (
		b      domains.Binding
		method sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.TenantID, &b.Domain, &b.Type, &b.IsPrimary, &b.Status, &b.SSLStatus,
		&method, &b.VerificationToken, &b.VerifiedAt, &b.LastCheckedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domains.ErrBindingNotFound
		}
		return nil, fmt.Errorf("postgres: scan domain binding: %w", err)
	}
	if method.Valid {
		b.Method = dnsverify.Method(method.String)
	}
	return &b, nil
}

func (s *Store) Create(ctx context.Context, b *domains.Binding) error {
	var method any
	if b.Method != "" {
		method = string(b.Method)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO domain_bindings (`+bindingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		b.ID, b.TenantID, b.Domain, b.Type, b.IsPrimary, b.Status, b.SSLStatus,
		method, b.VerificationToken, b.VerifiedAt, b.LastCheckedAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		// Any unique violation here means another binding already claims
		// the domain (or the tenant's subdomain/primary slot) — the race
		// the service's pre-check cannot close on its own.
		if isUniqueViolation(err) {
			return domains.ErrDomainTaken
		}
		return fmt.Errorf("postgres: insert domain binding: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, tenantID, id string) (*domains.Binding, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+bindingColumns+`
		FROM domain_bindings
		WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return scanBinding(row)
}

func (s *Store) GetByDomain(ctx context.Context, domain string) (*domains.Binding, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+bindingColumns+`
		FROM domain_bindings
		WHERE domain = $1`, domain)
	return scanBinding(row)
}

func (s *Store) GetActiveByDomain(ctx context.Context, domain string) (*domains.Binding, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+bindingColumns+`
		FROM domain_bindings
		WHERE domain = $1 AND status = 'active'`, domain)
	return scanBinding(row)
}

func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]domains.Binding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+bindingColumns+`
		FROM domain_bindings
		WHERE tenant_id = $1
		ORDER BY (domain_type = 'subdomain') DESC, created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list domain bindings: %w", err)
	}
	defer rows.Close()

	var out []domains.Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) SubdomainByTenant(ctx context.Context, tenantID string) (*domains.Binding, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+bindingColumns+`
		FROM domain_bindings
		WHERE tenant_id = $1 AND domain_type = 'subdomain'`, tenantID)
	return scanBinding(row)
}

func (s *Store) PrimaryByTenant(ctx context.Context, tenantID string) (*domains.Binding, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+bindingColumns+`
		FROM domain_bindings
		WHERE tenant_id = $1 AND is_primary`, tenantID)
	return scanBinding(row)
}

func (s *Store) HasActiveCustomDomain(ctx context.Context, tenantID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM domain_bindings
			WHERE tenant_id = $1 AND domain_type = 'custom' AND status = 'active'
		)`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check custom domains: %w", err)
	}
	return exists, nil
}

// Update is guarded against demoting an activation: a plain last-writer-wins
// UPDATE would let a slow failing verification overwrite a binding another
// request just activated.
func (s *Store) Update(ctx context.Context, b *domains.Binding) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE domain_bindings
		SET status = $3, ssl_status = $4, verified_at = $5, last_checked_at = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2
		  AND (status <> 'active' OR $3 = 'active')`,
		b.ID, b.TenantID, b.Status, b.SSLStatus, b.VerifiedAt, b.LastCheckedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update domain binding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM domain_bindings WHERE id = $1 AND tenant_id = $2
			)`, b.ID, b.TenantID).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: inspect update target: %w", err)
		}
		if !exists {
			return domains.ErrBindingNotFound
		}
		return domains.ErrConcurrentVerification
	}
	return nil
}

// SetPrimary swaps the tenant's primary flag in one transaction. Clearing
// before setting keeps the partial unique index satisfied at every point;
// the row locks taken by the first update serialize concurrent swaps for
// the same tenant.
func (s *Store) SetPrimary(ctx context.Context, tenantID, id string) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE domain_bindings
			SET is_primary = false, updated_at = now()
			WHERE tenant_id = $1 AND is_primary AND id <> $2`, tenantID, id); err != nil {
			return fmt.Errorf("postgres: clear primary: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE domain_bindings
			SET is_primary = true, updated_at = now()
			WHERE id = $2 AND tenant_id = $1 AND status = 'active'`, tenantID, id)
		if err != nil {
			// With no current primary the clear step locks nothing, so two
			// concurrent promotions race to insert into the partial unique
			// index; the loser lands here.
			if isUniqueViolation(err) {
				return domains.ErrPrimaryContested
			}
			return fmt.Errorf("postgres: set primary: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Rolling back restores the previous primary untouched.
			var status string
			err := tx.QueryRow(ctx, `
				SELECT status FROM domain_bindings
				WHERE id = $2 AND tenant_id = $1`, tenantID, id).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return domains.ErrBindingNotFound
			}
			if err != nil {
				return fmt.Errorf("postgres: inspect primary target: %w", err)
			}
			return domains.ErrNotVerified
		}
		return nil
	})
}

// Delete removes a binding, re-evaluating the last-domain guard for
// primaries atomically with the delete itself so a concurrent add cannot
// slip between check and removal.
func (s *Store) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM domain_bindings
		WHERE id = $1 AND tenant_id = $2
		  AND (NOT is_primary OR NOT EXISTS (
				SELECT 1 FROM domain_bindings o
				WHERE o.tenant_id = $2 AND o.id <> $1
		  ))`, id, tenantID)
	if err != nil {
		return fmt.Errorf("postgres: delete domain binding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM domain_bindings WHERE id = $1 AND tenant_id = $2
			)`, id, tenantID).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: inspect delete target: %w", err)
		}
		if !exists {
			return domains.ErrBindingNotFound
		}
		return domains.ErrPrimaryInUse
	}
	return nil
}
