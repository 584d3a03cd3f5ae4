package repositories

import (
	"context"
	"time"

	"edvisa-admin/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Replace stores token as the user's only refresh token, overwriting
// whatever was there before
func (r *refreshTokenRepository) Replace(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "expires_at", "created_at"}),
		}).
		Create(token).Error
}

// GetByTokenHash gets a refresh token by its hash
func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// GetByUserID gets the refresh token of a user
func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteByTokenHash deletes a refresh token by its hash
func (r *refreshTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&models.RefreshToken{})
	return res.RowsAffected > 0, res.Error
}

// DeleteByUserID deletes the refresh token of a user
func (r *refreshTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}

// DeleteExpired deletes all expired tokens (cleanup job)
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
