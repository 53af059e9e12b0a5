package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hauntworks/platform/internal/resolver"
)

func (s *Store) TenantByID(ctx context.Context, id string) (*resolver.Tenant, error) {
	var t resolver.Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, name FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resolver.ErrTenantNotFound
		}
		return nil, fmt.Errorf("postgres: tenant by id: %w", err)
	}
	return &t, nil
}

func (s *Store) TenantBySlug(ctx context.Context, slug string) (*resolver.Tenant, error) {
	var t resolver.Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, name FROM tenants WHERE slug = $1`, slug).
		Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resolver.ErrTenantNotFound
		}
		return nil, fmt.Errorf("postgres: tenant by slug: %w", err)
	}
	return &t, nil
}

func (s *Store) PublishedSettings(ctx context.Context, tenantID string) (*resolver.Settings, error) {
	var st resolver.Settings
	err := s.pool.QueryRow(ctx, `
		SELECT is_published, title FROM storefront_settings WHERE tenant_id = $1`, tenantID).
		Scan(&st.IsPublished, &st.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resolver.ErrTenantNotFound
		}
		return nil, fmt.Errorf("postgres: storefront settings: %w", err)
	}
	return &st, nil
}

// UpsertSettings writes a tenant's storefront settings.
func (s *Store) UpsertSettings(ctx context.Context, tenantID, title string, isPublished bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO storefront_settings (tenant_id, title, is_published)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE
		SET title = EXCLUDED.title, is_published = EXCLUDED.is_published, updated_at = now()`,
		tenantID, title, isPublished)
	if err != nil {
		return fmt.Errorf("postgres: upsert storefront settings: %w", err)
	}
	return nil
}
