package services

import (
	"context"
	"fmt"

	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
)

// PermissionSync resets an Admin's assignments to the current Admin
// defaults, so catalog additions reach admins on their next session.
type PermissionSync struct {
	catalog *authz.Catalog
}

// NewPermissionSync creates a new permission sync
func NewPermissionSync(catalog *authz.Catalog) *PermissionSync {
	return &PermissionSync{catalog: catalog}
}

// Sync replaces user's assignments with DefaultsFor(Admin) when user is
// an Admin and reports whether it did. tx must be the transaction that
// issues the session: a failure here rolls back the whole issuance and
// the previous assignments survive.
func (p *PermissionSync) Sync(ctx context.Context, tx *repositories.Repositories, user *domain.User) (bool, error) {
	if user.Role != domain.RoleAdmin {
		return false, nil
	}

	defaults, err := p.catalog.DefaultsFor(domain.RoleAdmin)
	if err != nil {
		return false, err
	}

	if err := tx.Permissions.DeleteAllByUserID(ctx, user.ID); err != nil {
		return false, fmt.Errorf("admin permission sync: clear: %w", err)
	}

	names := make([]string, len(defaults))
	for i, p := range defaults {
		names[i] = string(p)
	}
	if err := tx.Permissions.CreateBatch(ctx, user.ID, names); err != nil {
		return false, fmt.Errorf("admin permission sync: insert: %w", err)
	}
	return true, nil
}

// loadPermissions reads a user's assignments as a set. Stored names no
// longer in the catalog are skipped.
func loadPermissions(ctx context.Context, repos *repositories.Repositories, userID string) (domain.PermissionSet, error) {
	rows, err := repos.Permissions.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := domain.NewPermissionSet()
	for _, row := range rows {
		if p, err := domain.ParsePermission(row.Permission); err == nil {
			set[p] = struct{}{}
		}
	}
	return set, nil
}
