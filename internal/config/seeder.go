package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db    *gorm.DB
	admin AdminSeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, admin AdminSeedConfig) *Seeder {
	return &Seeder{db: db, admin: admin}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the bootstrap admin when no admin exists yet.
// Its permission rows are written by the sync on first login.
func (s *Seeder) seedAdminUser() error {
	email := strings.ToLower(strings.TrimSpace(s.admin.Email))
	if email == "" {
		log.Println("⚠️ Skipping admin seed: ADMIN_EMAIL not set")
		return nil
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if !password.ValidatePassword(s.admin.Password) {
		return errors.New("ADMIN_PASSWORD is too short")
	}
	hashedPassword, err := password.Hash(s.admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:         email,
		PasswordHash:  hashedPassword,
		FirstName:     "System",
		LastName:      "Administrator",
		Role:          string(domain.RoleAdmin),
		IsActive:      true,
		EmailVerified: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}
