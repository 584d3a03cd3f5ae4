package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/testdb"
	"edvisa-admin/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, repo UserRepository, email string, role domain.Role) *models.User {
	t.Helper()
	u := models.UserFromDomain(&domain.User{
		Email:         email,
		PasswordHash:  "x",
		Role:          role,
		IsActive:      true,
		EmailVerified: true,
	})
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func TestUserRepository_CreateLoadsVariant(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(testdb.Open(t)).Repos()

	counselor := createUser(t, repos.Users, "counselor@example.com", domain.RoleEmployee)
	student := models.UserFromDomain(&domain.User{
		Email:        "student@example.com",
		PasswordHash: "x",
		Role:         domain.RoleStudent,
		Student: &domain.StudentFields{
			Assignment: domain.Assignment{CounselorID: strPtr(counselor.ID)},
			University: "Uni",
		},
	})
	require.NoError(t, repos.Users.Create(ctx, student))

	got, err := repos.Users.GetByID(ctx, student.ID)
	require.NoError(t, err)

	d := got.ToDomain()
	require.NotNil(t, d.Student)
	assert.Nil(t, d.Employee)
	assert.Equal(t, "Uni", d.Student.University)
	require.NotNil(t, d.Student.CounselorID)
	assert.Equal(t, counselor.ID, *d.Student.CounselorID)
	assert.Nil(t, d.Student.SOPWriterID)

	locked, err := repos.Users.GetByIDForUpdate(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, locked.ID)
}

func TestUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(testdb.Open(t)).Repos()

	emp := createUser(t, repos.Users, "emp@example.com", domain.RoleEmployee)
	partner := createUser(t, repos.Users, "partner@example.com", domain.RolePartner)

	got, err := repos.Users.GetByEmail(ctx, "emp@example.com")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, got.ID)

	_, err = repos.Users.GetByEmail(ctx, "missing@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	exists, err := repos.Users.ExistsByEmail(ctx, "partner@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	hasAdmin, err := repos.Users.ExistsByRole(ctx, string(domain.RoleAdmin))
	require.NoError(t, err)
	assert.False(t, hasAdmin)

	n, err := repos.Users.CountByIDsAndRole(ctx, []string{emp.ID, partner.ID}, string(domain.RoleEmployee))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(testdb.Open(t)).Repos()

	u := createUser(t, repos.Users, "client@example.com", domain.RoleImmigrationClient)

	require.NoError(t, repos.Users.UpdateFields(ctx, u.ID, map[string]interface{}{"is_active": false}))
	require.NoError(t, repos.Users.UpdateImmigrationClientProfile(ctx, u.ID, map[string]interface{}{"visa_type": "F-1"}))

	got, err := repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.ImmigrationClientProfile)
	assert.Equal(t, "F-1", got.ImmigrationClientProfile.VisaType)

	require.NoError(t, repos.Users.Delete(ctx, u.ID))
	_, err = repos.Users.GetByID(ctx, u.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	assert.True(t, errors.Is(repos.Users.Delete(ctx, u.ID), gorm.ErrRecordNotFound))
	assert.True(t, errors.Is(repos.Users.UpdateFields(ctx, "nope", map[string]interface{}{"phone": "1"}), gorm.ErrRecordNotFound))
}

func TestPermissionRepository_GrantRevoke(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(testdb.Open(t)).Repos()
	u := createUser(t, repos.Users, "emp@example.com", domain.RoleEmployee)

	require.NoError(t, repos.Permissions.CreateBatch(ctx, u.ID, []string{"Students_Own_Read", "Dashboard_Read"}))
	require.NoError(t, repos.Permissions.Grant(ctx, u.ID, "Dashboard_Read"))
	require.NoError(t, repos.Permissions.CreateBatch(ctx, u.ID, nil))

	rows, err := repos.Permissions.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Dashboard_Read", rows[0].Permission)
	assert.Equal(t, "Students_Own_Read", rows[1].Permission)

	removed, err := repos.Permissions.Revoke(ctx, u.ID, "Dashboard_Read")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repos.Permissions.Revoke(ctx, u.ID, "Dashboard_Read")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repos.Permissions.DeleteAllByUserID(ctx, u.ID))
	rows, err = repos.Permissions.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRefreshTokenRepository_ReplaceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	repos := NewStore(db).Repos()
	u := createUser(t, repos.Users, "s@example.com", domain.RoleStudent)
	now := time.Now().UTC()

	require.NoError(t, repos.RefreshTokens.Replace(ctx, &models.RefreshToken{UserID: u.ID, TokenHash: "first", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repos.RefreshTokens.Replace(ctx, &models.RefreshToken{UserID: u.ID, TokenHash: "second", ExpiresAt: now.Add(time.Hour)}))

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err := repos.RefreshTokens.GetByTokenHash(ctx, "first")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	got, err := repos.RefreshTokens.GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.TokenHash)

	deleted, err := repos.RefreshTokens.DeleteByTokenHash(ctx, "second")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(testdb.Open(t)).Repos()
	a := createUser(t, repos.Users, "a@example.com", domain.RoleStudent)
	b := createUser(t, repos.Users, "b@example.com", domain.RoleStudent)
	now := time.Now().UTC()

	require.NoError(t, repos.RefreshTokens.Replace(ctx, &models.RefreshToken{UserID: a.ID, TokenHash: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repos.RefreshTokens.Replace(ctx, &models.RefreshToken{UserID: b.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)}))

	n, err := repos.RefreshTokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repos.RefreshTokens.GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testdb.Open(t))
	u := createUser(t, store.Repos().Users, "admin@example.com", domain.RoleAdmin)
	require.NoError(t, store.Repos().Permissions.Grant(ctx, u.ID, "Users_Read"))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *Repositories) error {
		if err := tx.Permissions.DeleteAllByUserID(ctx, u.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := store.Repos().Permissions.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(testdb.Open(t)).Repos()
	u := createUser(t, repos.Users, "s@example.com", domain.RoleStudent)

	doc := &models.Document{UserID: u.ID, Title: "Passport", StorageKey: "docs/p.pdf", UploadedBy: u.ID}
	require.NoError(t, repos.Documents.Create(ctx, doc))
	assert.NotEmpty(t, doc.ID)

	docs, err := repos.Documents.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Passport", docs[0].ToDomain().Title)
}
