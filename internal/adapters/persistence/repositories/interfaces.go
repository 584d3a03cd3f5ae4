package repositories

import (
	"context"
	"time"

	"edvisa-admin/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByRole(ctx context.Context, role string) (bool, error)
	CountByIDsAndRole(ctx context.Context, ids []string, role string) (int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateStudentProfile(ctx context.Context, userID string, fields map[string]interface{}) error
	UpdateImmigrationClientProfile(ctx context.Context, userID string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// PermissionRepository defines permission assignment repository interface
type PermissionRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*models.PermissionAssignment, error)
	Grant(ctx context.Context, userID, permission string) error
	Revoke(ctx context.Context, userID, permission string) (bool, error)
	CreateBatch(ctx context.Context, userID string, permissions []string) error
	DeleteAllByUserID(ctx context.Context, userID string) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Replace(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	GetByUserID(ctx context.Context, userID string) (*models.RefreshToken, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DocumentRepository defines document metadata repository interface
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	ListByUserID(ctx context.Context, userID string) ([]*models.Document, error)
}
