package domain

import (
	"fmt"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin             Role = "Admin"
	RoleStudent           Role = "Student"
	RoleEmployee          Role = "Employee"
	RolePartner           Role = "Partner"
	RoleImmigrationClient Role = "ImmigrationClient"
)

// AllRoles returns the fixed role enumeration
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleStudent, RoleEmployee, RolePartner, RoleImmigrationClient}
}

// Valid reports whether r is part of the role enumeration
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleEmployee, RolePartner, RoleImmigrationClient:
		return true
	}
	return false
}

// ParseRole converts a claim or request value into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Assignment holds the staff relationship pointers of an assignable client.
// Each set pointer references an Employee.
type Assignment struct {
	AdmissionAssociateID *string
	CounselorID          *string
	SOPWriterID          *string
}

// IDs returns the set pointers in a stable order
func (a Assignment) IDs() []string {
	ids := make([]string, 0, 3)
	for _, p := range []*string{a.AdmissionAssociateID, a.CounselorID, a.SOPWriterID} {
		if p != nil && *p != "" {
			ids = append(ids, *p)
		}
	}
	return ids
}

// StudentFields is the Student variant payload
type StudentFields struct {
	Assignment
	University string
	Program    string
	Intake     string
}

// ImmigrationClientFields is the ImmigrationClient variant payload
type ImmigrationClientFields struct {
	Assignment
	VisaType           string
	DestinationCountry string
}

// EmployeeFields is the Employee variant payload
type EmployeeFields struct {
	Department string
	JobTitle   string
}

// PartnerFields is the Partner variant payload
type PartnerFields struct {
	CompanyName    string
	CommissionRate float64
}

// User is the common base record. Exactly one variant pointer matching Role
// is set; Admin carries none.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Phone         string
	Role          Role
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Student           *StudentFields
	ImmigrationClient *ImmigrationClientFields
	Employee          *EmployeeFields
	Partner           *PartnerFields
}

// OwnerID is the identity that owns the record: the user itself
func (u *User) OwnerID() string {
	return u.ID
}

// Assignees returns the staff assignment for assignable variants and the
// zero Assignment for every other role.
func (u *User) Assignees() Assignment {
	switch u.Role {
	case RoleStudent:
		if u.Student != nil {
			return u.Student.Assignment
		}
	case RoleImmigrationClient:
		if u.ImmigrationClient != nil {
			return u.ImmigrationClient.Assignment
		}
	}
	return Assignment{}
}

// Assignable reports whether the role can carry staff assignments
func (r Role) Assignable() bool {
	return r == RoleStudent || r == RoleImmigrationClient
}

// Principal is the authenticated identity making a request
type Principal struct {
	SubjectID   string
	Role        Role
	Permissions PermissionSet
}

// Document is stored file metadata owned by a client. The file itself
// lives in external storage under StorageKey.
type Document struct {
	ID         string
	UserID     string
	Title      string
	StorageKey string
	UploadedBy string
	CreatedAt  time.Time
}

// OwnerID returns the client the document belongs to
func (d *Document) OwnerID() string {
	return d.UserID
}
