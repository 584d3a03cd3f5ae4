package repositories

import (
	"context"

	"edvisa-admin/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) withProfiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("StudentProfile").
		Preload("ImmigrationClientProfile").
		Preload("EmployeeProfile").
		Preload("PartnerProfile")
}

// Create creates a new user together with its role profile
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.withProfiles(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate gets a user and locks its row until the surrounding
// transaction ends. Session writers all take this lock first.
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.withProfiles(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.withProfiles(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ExistsByRole checks if any user holds role
func (r *userRepository) ExistsByRole(ctx context.Context, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count > 0, err
}

// CountByIDsAndRole counts how many of ids are users with role
func (r *userRepository) CountByIDsAndRole(ctx context.Context, ids []string, role string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ?", ids).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

// UpdateFields updates base user columns
func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStudentProfile updates student profile columns, creating the row if missing
func (r *userRepository) UpdateStudentProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	return r.upsertProfile(ctx, &models.StudentProfile{UserID: userID}, fields)
}

// UpdateImmigrationClientProfile updates immigration client profile columns
func (r *userRepository) UpdateImmigrationClientProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	return r.upsertProfile(ctx, &models.ImmigrationClientProfile{UserID: userID}, fields)
}

func (r *userRepository) upsertProfile(ctx context.Context, profile interface{}, fields map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error; err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	return db.Model(profile).Updates(fields).Error
}

// Delete soft deletes a user
func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
