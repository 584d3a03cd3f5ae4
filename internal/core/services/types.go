package services

import (
	"errors"
	"strings"
	"time"

	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
)

// Service errors
var (
	ErrUserNotFound                 = errors.New("user not found")
	ErrUserAlreadyExists            = errors.New("user already exists")
	ErrInvalidOrExpiredRefreshToken = errors.New("invalid or expired refresh token")
	ErrAdminPermissionsManaged      = errors.New("admin permissions are managed by the role defaults")
	ErrPermissionNotAssigned        = errors.New("permission is not assigned to user")
	ErrInvalidAssignee              = errors.New("assigned staff must be existing employees")
	ErrWeakPassword                 = errors.New("password is too short")
)

// Login failure messages
const (
	MsgInvalidCredentials = "Invalid Credentials"
	MsgEmailNotVerified   = "Email not verified"
)

// ValidationError is a user-facing failure tied to one input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalidCredentials() error {
	return &ValidationError{Field: "Credentials", Message: MsgInvalidCredentials}
}

func emailNotVerified() error {
	return &ValidationError{Field: "Email", Message: MsgEmailNotVerified}
}

// Access is the outcome of the route-level permission check together with
// the caller it was computed for. Handlers pass it down so services can
// finish the ownership half of the decision against the loaded record.
type Access struct {
	SubjectID string
	Result    authz.Result
}

// Broad reports whether the caller passed on a broad permission
func (a Access) Broad() bool {
	return a.Result.Decision == authz.Allow
}

// UserResponse is the API view of a user
type UserResponse struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	FirstName     string           `json:"first_name"`
	LastName      string           `json:"last_name"`
	Phone         string           `json:"phone,omitempty"`
	Role          string           `json:"role"`
	IsActive      bool             `json:"is_active"`
	EmailVerified bool             `json:"email_verified"`
	Permissions   []string         `json:"permissions,omitempty"`
	Profile       *ProfileResponse `json:"profile,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProfileResponse flattens the role variant. Only fields of the user's
// own variant are set.
type ProfileResponse struct {
	AdmissionAssociateID *string `json:"admission_associate_id,omitempty"`
	CounselorID          *string `json:"counselor_id,omitempty"`
	SOPWriterID          *string `json:"sop_writer_id,omitempty"`

	University string `json:"university,omitempty"`
	Program    string `json:"program,omitempty"`
	Intake     string `json:"intake,omitempty"`

	VisaType           string `json:"visa_type,omitempty"`
	DestinationCountry string `json:"destination_country,omitempty"`

	Department string `json:"department,omitempty"`
	JobTitle   string `json:"job_title,omitempty"`

	CompanyName    string  `json:"company_name,omitempty"`
	CommissionRate float64 `json:"commission_rate,omitempty"`
}

// NewUserResponse builds the API view of u
func NewUserResponse(u *domain.User, perms domain.PermissionSet) *UserResponse {
	resp := &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if perms != nil {
		resp.Permissions = perms.Strings()
	}

	switch {
	case u.Student != nil:
		a := u.Student.Assignment
		resp.Profile = &ProfileResponse{
			AdmissionAssociateID: a.AdmissionAssociateID,
			CounselorID:          a.CounselorID,
			SOPWriterID:          a.SOPWriterID,
			University:           u.Student.University,
			Program:              u.Student.Program,
			Intake:               u.Student.Intake,
		}
	case u.ImmigrationClient != nil:
		a := u.ImmigrationClient.Assignment
		resp.Profile = &ProfileResponse{
			AdmissionAssociateID: a.AdmissionAssociateID,
			CounselorID:          a.CounselorID,
			SOPWriterID:          a.SOPWriterID,
			VisaType:             u.ImmigrationClient.VisaType,
			DestinationCountry:   u.ImmigrationClient.DestinationCountry,
		}
	case u.Employee != nil:
		resp.Profile = &ProfileResponse{
			Department: u.Employee.Department,
			JobTitle:   u.Employee.JobTitle,
		}
	case u.Partner != nil:
		resp.Profile = &ProfileResponse{
			CompanyName:    u.Partner.CompanyName,
			CommissionRate: u.Partner.CommissionRate,
		}
	}
	return resp
}

// DocumentResponse is the API view of document metadata
type DocumentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	StorageKey string    `json:"storage_key"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func newDocumentResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		UserID:     d.UserID,
		Title:      d.Title,
		StorageKey: d.StorageKey,
		UploadedBy: d.UploadedBy,
		CreatedAt:  d.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
