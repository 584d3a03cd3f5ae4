package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"edvisa-admin/internal/adapters/events"
	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/pkg/metrics"

	"gorm.io/gorm"
)

// PermissionService manages per-user permission assignments. Changes
// reach a user's tokens on the next login or refresh.
type PermissionService struct {
	store     repositories.Store
	catalog   *authz.Catalog
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewPermissionService creates a new permission service
func NewPermissionService(store repositories.Store, catalog *authz.Catalog, publisher events.Publisher, m *metrics.Metrics) *PermissionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PermissionService{store: store, catalog: catalog, publisher: publisher, metrics: m}
}

// GrantInput names the permission to grant
type GrantInput struct {
	Permission string `json:"permission" validate:"required"`
}

// CatalogResponse lists every permission and each role's defaults
type CatalogResponse struct {
	Permissions []string            `json:"permissions"`
	Defaults    map[string][]string `json:"defaults"`
}

// Catalog returns the permission catalog
func (s *PermissionService) Catalog() *CatalogResponse {
	all := domain.AllPermissions()
	resp := &CatalogResponse{
		Permissions: make([]string, len(all)),
		Defaults:    make(map[string][]string),
	}
	for i, p := range all {
		resp.Permissions[i] = string(p)
	}
	for role, perms := range s.catalog.Snapshot() {
		resp.Defaults[string(role)] = domain.NewPermissionSet(perms...).Strings()
	}
	return resp
}

// List returns the permissions currently assigned to a user
func (s *PermissionService) List(ctx context.Context, userID string) ([]string, error) {
	repos := s.store.Repos()
	if _, err := s.getUser(ctx, repos, userID); err != nil {
		return nil, err
	}
	perms, err := loadPermissions(ctx, repos, userID)
	if err != nil {
		return nil, err
	}
	return perms.Strings(), nil
}

// Grant assigns a permission to a non-Admin user
func (s *PermissionService) Grant(ctx context.Context, actorID, userID, name string) error {
	perm, err := domain.ParsePermission(name)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	err = s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if err := s.lockTarget(ctx, tx, userID); err != nil {
			return err
		}
		return tx.Permissions.Grant(ctx, userID, string(perm))
	})
	if err != nil {
		return err
	}

	s.changed(ctx, events.EventPermissionGranted, "grant", actorID, userID, perm)
	return nil
}

// Revoke removes a permission from a non-Admin user
func (s *PermissionService) Revoke(ctx context.Context, actorID, userID, name string) error {
	perm, err := domain.ParsePermission(name)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	err = s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if err := s.lockTarget(ctx, tx, userID); err != nil {
			return err
		}
		removed, err := tx.Permissions.Revoke(ctx, userID, string(perm))
		if err != nil {
			return err
		}
		if !removed {
			return ErrPermissionNotAssigned
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.changed(ctx, events.EventPermissionRevoked, "revoke", actorID, userID, perm)
	return nil
}

// lockTarget locks the target row so edits serialize with session
// issuance, and rejects Admin targets
func (s *PermissionService) lockTarget(ctx context.Context, tx *repositories.Repositories, userID string) error {
	user, err := tx.Users.GetByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if domain.Role(user.Role) == domain.RoleAdmin {
		return ErrAdminPermissionsManaged
	}
	return nil
}

func (s *PermissionService) getUser(ctx context.Context, repos *repositories.Repositories, userID string) (*models.User, error) {
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *PermissionService) changed(ctx context.Context, eventType, operation, actorID, userID string, perm domain.Permission) {
	s.metrics.ObservePermissionChange(operation)
	log.Printf("✅ Permission %s: %s on %s by %s", operation, perm, userID, actorID)

	event := &events.Event{
		Type:      eventType,
		UserID:    userID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"permission": string(perm)},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish %s: %v", eventType, err)
	}
}
