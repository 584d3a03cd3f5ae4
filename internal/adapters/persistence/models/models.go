package models

import (
	"time"

	"edvisa-admin/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Users & role profiles
// ============================================================

// User represents users table. Role-specific columns live in one profile
// table per variant.
type User struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Email         string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash  string         `gorm:"size:255;not null" json:"-"`
	FirstName     string         `gorm:"size:100" json:"first_name"`
	LastName      string         `gorm:"size:100" json:"last_name"`
	Phone         string         `gorm:"size:30" json:"phone"`
	Role          string         `gorm:"size:32;not null;index" json:"role"`
	IsActive      bool           `gorm:"not null" json:"is_active"`
	EmailVerified bool           `gorm:"not null" json:"email_verified"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	StudentProfile           *StudentProfile           `gorm:"foreignKey:UserID" json:"-"`
	ImmigrationClientProfile *ImmigrationClientProfile `gorm:"foreignKey:UserID" json:"-"`
	EmployeeProfile          *EmployeeProfile          `gorm:"foreignKey:UserID" json:"-"`
	PartnerProfile           *PartnerProfile           `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// StudentProfile represents student_profiles table
type StudentProfile struct {
	UserID               string    `gorm:"primaryKey;size:36" json:"user_id"`
	AdmissionAssociateID *string   `gorm:"column:admission_associate_id;size:36;index" json:"admission_associate_id"`
	CounselorID          *string   `gorm:"column:counselor_id;size:36;index" json:"counselor_id"`
	SOPWriterID          *string   `gorm:"column:sop_writer_id;size:36;index" json:"sop_writer_id"`
	University           string    `gorm:"size:150" json:"university"`
	Program              string    `gorm:"size:150" json:"program"`
	Intake               string    `gorm:"size:30" json:"intake"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// ImmigrationClientProfile represents immigration_client_profiles table
type ImmigrationClientProfile struct {
	UserID               string    `gorm:"primaryKey;size:36" json:"user_id"`
	AdmissionAssociateID *string   `gorm:"column:admission_associate_id;size:36;index" json:"admission_associate_id"`
	CounselorID          *string   `gorm:"column:counselor_id;size:36;index" json:"counselor_id"`
	SOPWriterID          *string   `gorm:"column:sop_writer_id;size:36;index" json:"sop_writer_id"`
	VisaType             string    `gorm:"size:50" json:"visa_type"`
	DestinationCountry   string    `gorm:"size:80" json:"destination_country"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ImmigrationClientProfile) TableName() string {
	return "immigration_client_profiles"
}

// EmployeeProfile represents employee_profiles table
type EmployeeProfile struct {
	UserID     string `gorm:"primaryKey;size:36" json:"user_id"`
	Department string `gorm:"size:100" json:"department"`
	JobTitle   string `gorm:"size:100" json:"job_title"`
}

func (EmployeeProfile) TableName() string {
	return "employee_profiles"
}

// PartnerProfile represents partner_profiles table
type PartnerProfile struct {
	UserID         string  `gorm:"primaryKey;size:36" json:"user_id"`
	CompanyName    string  `gorm:"size:150" json:"company_name"`
	CommissionRate float64 `gorm:"type:decimal(5,2)" json:"commission_rate"`
}

func (PartnerProfile) TableName() string {
	return "partner_profiles"
}

// ToDomain converts the row and its loaded profile into the tagged union
func (u *User) ToDomain() *domain.User {
	d := &domain.User{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          domain.Role(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}

	switch d.Role {
	case domain.RoleStudent:
		d.Student = &domain.StudentFields{}
		if p := u.StudentProfile; p != nil {
			d.Student.Assignment = domain.Assignment{
				AdmissionAssociateID: p.AdmissionAssociateID,
				CounselorID:          p.CounselorID,
				SOPWriterID:          p.SOPWriterID,
			}
			d.Student.University = p.University
			d.Student.Program = p.Program
			d.Student.Intake = p.Intake
		}
	case domain.RoleImmigrationClient:
		d.ImmigrationClient = &domain.ImmigrationClientFields{}
		if p := u.ImmigrationClientProfile; p != nil {
			d.ImmigrationClient.Assignment = domain.Assignment{
				AdmissionAssociateID: p.AdmissionAssociateID,
				CounselorID:          p.CounselorID,
				SOPWriterID:          p.SOPWriterID,
			}
			d.ImmigrationClient.VisaType = p.VisaType
			d.ImmigrationClient.DestinationCountry = p.DestinationCountry
		}
	case domain.RoleEmployee:
		d.Employee = &domain.EmployeeFields{}
		if p := u.EmployeeProfile; p != nil {
			d.Employee.Department = p.Department
			d.Employee.JobTitle = p.JobTitle
		}
	case domain.RolePartner:
		d.Partner = &domain.PartnerFields{}
		if p := u.PartnerProfile; p != nil {
			d.Partner.CompanyName = p.CompanyName
			d.Partner.CommissionRate = p.CommissionRate
		}
	}
	return d
}

// UserFromDomain builds a row, with the matching profile, for insertion
func UserFromDomain(d *domain.User) *User {
	u := &User{
		ID:            d.ID,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Phone:         d.Phone,
		Role:          string(d.Role),
		IsActive:      d.IsActive,
		EmailVerified: d.EmailVerified,
	}

	switch d.Role {
	case domain.RoleStudent:
		f := d.Student
		if f == nil {
			f = &domain.StudentFields{}
		}
		u.StudentProfile = &StudentProfile{
			AdmissionAssociateID: f.AdmissionAssociateID,
			CounselorID:          f.CounselorID,
			SOPWriterID:          f.SOPWriterID,
			University:           f.University,
			Program:              f.Program,
			Intake:               f.Intake,
		}
	case domain.RoleImmigrationClient:
		f := d.ImmigrationClient
		if f == nil {
			f = &domain.ImmigrationClientFields{}
		}
		u.ImmigrationClientProfile = &ImmigrationClientProfile{
			AdmissionAssociateID: f.AdmissionAssociateID,
			CounselorID:          f.CounselorID,
			SOPWriterID:          f.SOPWriterID,
			VisaType:             f.VisaType,
			DestinationCountry:   f.DestinationCountry,
		}
	case domain.RoleEmployee:
		f := d.Employee
		if f == nil {
			f = &domain.EmployeeFields{}
		}
		u.EmployeeProfile = &EmployeeProfile{Department: f.Department, JobTitle: f.JobTitle}
	case domain.RolePartner:
		f := d.Partner
		if f == nil {
			f = &domain.PartnerFields{}
		}
		u.PartnerProfile = &PartnerProfile{CompanyName: f.CompanyName, CommissionRate: f.CommissionRate}
	}
	return u
}

// ============================================================
// Authorization tables
// ============================================================

// PermissionAssignment represents permission_assignments table: one row
// per (user, permission) grant
type PermissionAssignment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_user_permission,priority:1" json:"user_id"`
	Permission string    `gorm:"size:100;not null;uniqueIndex:idx_user_permission,priority:2" json:"permission"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PermissionAssignment) TableName() string {
	return "permission_assignments"
}

// RefreshToken represents refresh_tokens table. UserID is unique: a
// principal holds at most one refresh token, replaced on every issuance.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex" json:"user_id"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(rt.ExpiresAt)
}

// ============================================================
// Documents
// ============================================================

// Document represents documents table (metadata only)
type Document struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;not null;index" json:"user_id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	StorageKey string    `gorm:"size:300;not null" json:"storage_key"`
	UploadedBy string    `gorm:"size:36;not null" json:"uploaded_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (d *Document) ToDomain() *domain.Document {
	return &domain.Document{
		ID:         d.ID,
		UserID:     d.UserID,
		Title:      d.Title,
		StorageKey: d.StorageKey,
		UploadedBy: d.UploadedBy,
		CreatedAt:  d.CreatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&StudentProfile{},
		&ImmigrationClientProfile{},
		&EmployeeProfile{},
		&PartnerProfile{},
		&PermissionAssignment{},
		&RefreshToken{},
		&Document{},
	)
}
