package services

import (
	"context"
	"errors"
	"log"

	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles user lifecycle business logic
type UserService struct {
	store   repositories.Store
	catalog *authz.Catalog
}

// NewUserService creates a new user service
func NewUserService(store repositories.Store, catalog *authz.Catalog) *UserService {
	return &UserService{store: store, catalog: catalog}
}

// CreateUserInput represents user creation input. Profile fields apply
// only to the matching role.
type CreateUserInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Role      string `json:"role" validate:"required,oneof=Admin Student Employee Partner ImmigrationClient"`

	University string `json:"university" validate:"omitempty,max=150"`
	Program    string `json:"program" validate:"omitempty,max=150"`
	Intake     string `json:"intake" validate:"omitempty,max=30"`

	VisaType           string `json:"visa_type" validate:"omitempty,max=50"`
	DestinationCountry string `json:"destination_country" validate:"omitempty,max=80"`

	Department string `json:"department" validate:"omitempty,max=100"`
	JobTitle   string `json:"job_title" validate:"omitempty,max=100"`

	CompanyName    string  `json:"company_name" validate:"omitempty,max=150"`
	CommissionRate float64 `json:"commission_rate" validate:"gte=0,lte=100"`
}

// Create registers a principal and assigns its role defaults in the same
// transaction
func (s *UserService) Create(ctx context.Context, input *CreateUserInput) (*UserResponse, error) {
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	email := normalizeEmail(input.Email)
	exists, err := s.store.Repos().Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	defaults, err := s.catalog.DefaultsFor(role)
	if err != nil {
		return nil, err
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         role,
		IsActive:     true,
	}
	switch role {
	case domain.RoleStudent:
		user.Student = &domain.StudentFields{University: input.University, Program: input.Program, Intake: input.Intake}
	case domain.RoleImmigrationClient:
		user.ImmigrationClient = &domain.ImmigrationClientFields{VisaType: input.VisaType, DestinationCountry: input.DestinationCountry}
	case domain.RoleEmployee:
		user.Employee = &domain.EmployeeFields{Department: input.Department, JobTitle: input.JobTitle}
	case domain.RolePartner:
		user.Partner = &domain.PartnerFields{CompanyName: input.CompanyName, CommissionRate: input.CommissionRate}
	}

	row := models.UserFromDomain(user)
	names := make([]string, len(defaults))
	for i, p := range defaults {
		names[i] = string(p)
	}

	err = s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if err := tx.Users.Create(ctx, row); err != nil {
			return err
		}
		return tx.Permissions.CreateBatch(ctx, row.ID, names)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	log.Printf("✅ User created: %s (%s)", row.Email, row.Role)

	return s.Get(ctx, row.ID)
}

// Get returns a user with its current permission assignments
func (s *UserService) Get(ctx context.Context, id string) (*UserResponse, error) {
	repos := s.store.Repos()
	row, err := repos.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	perms, err := loadPermissions(ctx, repos, id)
	if err != nil {
		return nil, err
	}
	return NewUserResponse(row.ToDomain(), perms), nil
}

// VerifyEmail marks a user's email as verified
func (s *UserService) VerifyEmail(ctx context.Context, id string) error {
	err := s.store.Repos().Users.UpdateFields(ctx, id, map[string]interface{}{"email_verified": true})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// SetActive activates or deactivates a user. Deactivation also ends the
// user's refresh session.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	err := s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if _, err := tx.Users.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.Users.UpdateFields(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
			return err
		}
		if active {
			return nil
		}
		return tx.RefreshTokens.DeleteByUserID(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err == nil {
		log.Printf("✅ User %s active=%t", id, active)
	}
	return err
}

// Delete soft deletes a user and drops its refresh session and grants
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if _, err := tx.Users.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.RefreshTokens.DeleteByUserID(ctx, id); err != nil {
			return err
		}
		if err := tx.Permissions.DeleteAllByUserID(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err == nil {
		log.Printf("✅ User deleted: %s", id)
	}
	return err
}
