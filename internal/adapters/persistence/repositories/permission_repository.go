package repositories

import (
	"context"

	"edvisa-admin/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// permissionRepository implements PermissionRepository interface
type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository creates a new permission assignment repository
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

// ListByUserID lists a user's assignments ordered by permission name
func (r *permissionRepository) ListByUserID(ctx context.Context, userID string) ([]*models.PermissionAssignment, error) {
	var rows []*models.PermissionAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("permission ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Grant adds one assignment. Granting a held permission is a no-op.
func (r *permissionRepository) Grant(ctx context.Context, userID, permission string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PermissionAssignment{UserID: userID, Permission: permission}).Error
}

// Revoke removes one assignment and reports whether it existed
func (r *permissionRepository) Revoke(ctx context.Context, userID, permission string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND permission = ?", userID, permission).
		Delete(&models.PermissionAssignment{})
	return res.RowsAffected > 0, res.Error
}

// CreateBatch inserts assignments, skipping pairs that already exist
func (r *permissionRepository) CreateBatch(ctx context.Context, userID string, permissions []string) error {
	if len(permissions) == 0 {
		return nil
	}
	rows := make([]models.PermissionAssignment, 0, len(permissions))
	for _, p := range permissions {
		rows = append(rows, models.PermissionAssignment{UserID: userID, Permission: p})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// DeleteAllByUserID removes every assignment of a user
func (r *permissionRepository) DeleteAllByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PermissionAssignment{}).Error
}
