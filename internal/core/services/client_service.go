package services

import (
	"context"
	"errors"
	"log"

	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"

	"gorm.io/gorm"
)

// ClientService serves one assignable client kind (students or
// immigration clients). Every read or write finishes the two-phase
// check begun by the route requirement.
type ClientService struct {
	store repositories.Store
	role  domain.Role
}

// NewStudentService creates the client service for students
func NewStudentService(store repositories.Store) *ClientService {
	return &ClientService{store: store, role: domain.RoleStudent}
}

// NewImmigrationClientService creates the client service for immigration clients
func NewImmigrationClientService(store repositories.Store) *ClientService {
	return &ClientService{store: store, role: domain.RoleImmigrationClient}
}

// Role returns the client kind served
func (s *ClientService) Role() domain.Role {
	return s.role
}

// UpdateClientInput holds editable client fields. Nil leaves a field as is.
// Staff assignments are changed through Assign only.
type UpdateClientInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`

	University *string `json:"university" validate:"omitempty,max=150"`
	Program    *string `json:"program" validate:"omitempty,max=150"`
	Intake     *string `json:"intake" validate:"omitempty,max=30"`

	VisaType           *string `json:"visa_type" validate:"omitempty,max=50"`
	DestinationCountry *string `json:"destination_country" validate:"omitempty,max=80"`
}

// AssignStaffInput sets staff pointers. Nil leaves a pointer as is, an
// empty string clears it.
type AssignStaffInput struct {
	AdmissionAssociateID *string `json:"admission_associate_id"`
	CounselorID          *string `json:"counselor_id"`
	SOPWriterID          *string `json:"sop_writer_id"`
}

// CreateDocumentInput is document metadata; the file is uploaded elsewhere
type CreateDocumentInput struct {
	Title      string `json:"title" validate:"required,max=200"`
	StorageKey string `json:"storage_key" validate:"required,max=300"`
}

// Get returns a client the caller may see
func (s *ClientService) Get(ctx context.Context, access Access, id string) (*UserResponse, error) {
	client, err := s.authorize(ctx, s.store.Repos(), access, id, false)
	if err != nil {
		return nil, err
	}
	return NewUserResponse(client, nil), nil
}

// Update edits a client the caller may modify
func (s *ClientService) Update(ctx context.Context, access Access, id string, input *UpdateClientInput) (*UserResponse, error) {
	base := map[string]interface{}{}
	setIf(base, "first_name", input.FirstName)
	setIf(base, "last_name", input.LastName)
	setIf(base, "phone", input.Phone)

	profile := map[string]interface{}{}
	if s.role == domain.RoleStudent {
		setIf(profile, "university", input.University)
		setIf(profile, "program", input.Program)
		setIf(profile, "intake", input.Intake)
	} else {
		setIf(profile, "visa_type", input.VisaType)
		setIf(profile, "destination_country", input.DestinationCountry)
	}

	err := s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if _, err := s.authorize(ctx, tx, access, id, true); err != nil {
			return err
		}
		if len(base) > 0 {
			if err := tx.Users.UpdateFields(ctx, id, base); err != nil {
				return err
			}
		}
		if len(profile) > 0 {
			return s.updateProfile(ctx, tx, id, profile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, Access{Result: authz.Result{Decision: authz.Allow}}, id)
}

// Assign sets the client's admission associate, counselor and SOP writer.
// Every referenced user must be an Employee.
func (s *ClientService) Assign(ctx context.Context, access Access, id string, input *AssignStaffInput) (*UserResponse, error) {
	fields := map[string]interface{}{}
	var ids []string
	for column, ptr := range map[string]*string{
		"admission_associate_id": input.AdmissionAssociateID,
		"counselor_id":           input.CounselorID,
		"sop_writer_id":          input.SOPWriterID,
	} {
		if ptr == nil {
			continue
		}
		if *ptr == "" {
			fields[column] = nil
			continue
		}
		fields[column] = *ptr
		ids = append(ids, *ptr)
	}

	err := s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		if _, err := s.authorize(ctx, tx, access, id, true); err != nil {
			return err
		}
		if err := s.checkEmployees(ctx, tx, ids); err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return s.updateProfile(ctx, tx, id, fields)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Staff assigned to %s %s by %s", s.role, id, access.SubjectID)
	return s.Get(ctx, Access{Result: authz.Result{Decision: authz.Allow}}, id)
}

// ListDocuments returns the client's document metadata
func (s *ClientService) ListDocuments(ctx context.Context, access Access, id string) ([]*DocumentResponse, error) {
	repos := s.store.Repos()
	if _, err := s.authorize(ctx, repos, access, id, false); err != nil {
		return nil, err
	}
	docs, err := repos.Documents.ListByUserID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = newDocumentResponse(d.ToDomain())
	}
	return out, nil
}

// CreateDocument records document metadata for the client
func (s *ClientService) CreateDocument(ctx context.Context, access Access, id string, input *CreateDocumentInput) (*DocumentResponse, error) {
	repos := s.store.Repos()
	if _, err := s.authorize(ctx, repos, access, id, false); err != nil {
		return nil, err
	}
	doc := &models.Document{
		UserID:     id,
		Title:      input.Title,
		StorageKey: input.StorageKey,
		UploadedBy: access.SubjectID,
	}
	if err := repos.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	return newDocumentResponse(doc.ToDomain()), nil
}

// authorize loads the client and completes the ownership check. Callers
// without a broad permission get ErrForbidden for missing records so
// they cannot probe which ids exist.
func (s *ClientService) authorize(ctx context.Context, repos *repositories.Repositories, access Access, id string, lock bool) (*domain.User, error) {
	if access.Result.Decision == authz.Deny {
		return nil, domain.ErrForbidden
	}

	get := repos.Users.GetByID
	if lock {
		get = repos.Users.GetByIDForUpdate
	}
	row, err := get(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if row == nil || domain.Role(row.Role) != s.role {
		if access.Broad() {
			return nil, ErrUserNotFound
		}
		return nil, domain.ErrForbidden
	}

	client := row.ToDomain()
	if err := authz.Authorize(access.Result, access.SubjectID, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) checkEmployees(ctx context.Context, repos *repositories.Repositories, ids []string) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}
	list := make([]string, 0, len(unique))
	for id := range unique {
		list = append(list, id)
	}
	n, err := repos.Users.CountByIDsAndRole(ctx, list, string(domain.RoleEmployee))
	if err != nil {
		return err
	}
	if n != int64(len(list)) {
		return ErrInvalidAssignee
	}
	return nil
}

func (s *ClientService) updateProfile(ctx context.Context, repos *repositories.Repositories, id string, fields map[string]interface{}) error {
	if s.role == domain.RoleStudent {
		return repos.Users.UpdateStudentProfile(ctx, id, fields)
	}
	return repos.Users.UpdateImmigrationClientProfile(ctx, id, fields)
}

func setIf(fields map[string]interface{}, column string, v *string) {
	if v != nil {
		fields[column] = *v
	}
}
