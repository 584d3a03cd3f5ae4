package config

import (
	"testing"

	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/testdb"
	"edvisa-admin/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_CreatesAdminOnce(t *testing.T) {
	db := testdb.Open(t)
	seeder := NewSeeder(db, AdminSeedConfig{Email: " Root@Example.com ", Password: "bootstrap-pass"})

	require.NoError(t, seeder.Run())
	require.NoError(t, seeder.Run())

	var admins []models.User
	require.NoError(t, db.Where("role = ?", "Admin").Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@example.com", admins[0].Email)
	assert.True(t, admins[0].IsActive)
	assert.True(t, admins[0].EmailVerified)
	assert.True(t, password.Verify("bootstrap-pass", admins[0].PasswordHash))
}

func TestSeeder_SkipsWithoutEmail(t *testing.T) {
	db := testdb.Open(t)
	require.NoError(t, NewSeeder(db, AdminSeedConfig{}).Run())

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeeder_RejectsShortPassword(t *testing.T) {
	db := testdb.Open(t)
	assert.Error(t, NewSeeder(db, AdminSeedConfig{Email: "a@example.com", Password: "short"}).Run())
}
