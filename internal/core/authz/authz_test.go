package authz

import (
	"testing"

	"edvisa-admin/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLoadCatalogEmbeddedDefaults(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	for _, role := range domain.AllRoles() {
		_, err := catalog.DefaultsFor(role)
		assert.NoError(t, err, role)
	}

	admin, err := catalog.DefaultsFor(domain.RoleAdmin)
	require.NoError(t, err)
	assert.ElementsMatch(t, domain.AllPermissions(), admin)

	student, err := catalog.DefaultsFor(domain.RoleStudent)
	require.NoError(t, err)
	assert.Contains(t, student, domain.PermStudentsOwnRead)
	assert.NotContains(t, student, domain.PermStudentsRead)
}

func TestParseCatalogRejectsMissingRole(t *testing.T) {
	raw := []byte(`
defaults:
  Admin: ["*"]
  Student: [Students_Own_Read]
`)
	_, err := ParseCatalog(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDefaults)
}

func TestParseCatalogRejectsUnknownNames(t *testing.T) {
	_, err := ParseCatalog([]byte(`
defaults:
  Admin: ["*"]
  Student: [Students_Own_Raed]
  Employee: []
  Partner: []
  ImmigrationClient: []
`))
	assert.ErrorIs(t, err, domain.ErrUnknownPermission)

	_, err = ParseCatalog([]byte(`
defaults:
  Superuser: ["*"]
`))
	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestDefaultsForCollapsesDuplicatesAndCopies(t *testing.T) {
	catalog, err := NewCatalog(map[domain.Role][]domain.Permission{
		domain.RoleAdmin:             {domain.PermUsersRead, domain.PermUsersRead},
		domain.RoleStudent:           {},
		domain.RoleEmployee:          {},
		domain.RolePartner:           {},
		domain.RoleImmigrationClient: {},
	})
	require.NoError(t, err)

	perms, err := catalog.DefaultsFor(domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []domain.Permission{domain.PermUsersRead}, perms)

	perms[0] = domain.PermUsersDelete
	again, _ := catalog.DefaultsFor(domain.RoleAdmin)
	assert.Equal(t, domain.PermUsersRead, again[0])
}

func TestEvaluateOrOfPermissions(t *testing.T) {
	req := AnyOf(domain.PermUsersRead, domain.PermUsersUpdate)

	onlySecond := domain.NewPermissionSet(domain.PermUsersUpdate)
	assert.Equal(t, Allow, Evaluate(onlySecond, req).Decision)

	neither := domain.NewPermissionSet(domain.PermDashboardRead)
	assert.Equal(t, Deny, Evaluate(neither, req).Decision)

	assert.Equal(t, Deny, Evaluate(nil, req).Decision)
}

func TestEvaluateTwoTier(t *testing.T) {
	req := AnyOf(domain.PermDocumentsRead).
		Or(domain.PermStudentsOwnDocumentsRead, AllowAssigned).
		Or(domain.PermDocumentsOwnRead, AllowSelf)

	tests := []struct {
		name     string
		granted  domain.PermissionSet
		decision Decision
		modes    Mode
	}{
		{"broad wins over scoped", domain.NewPermissionSet(domain.PermDocumentsRead, domain.PermDocumentsOwnRead), Allow, 0},
		{"assigned scope", domain.NewPermissionSet(domain.PermStudentsOwnDocumentsRead), NeedsOwnership, AllowAssigned},
		{"self scope", domain.NewPermissionSet(domain.PermDocumentsOwnRead), NeedsOwnership, AllowSelf},
		{"both scopes", domain.NewPermissionSet(domain.PermDocumentsOwnRead, domain.PermStudentsOwnDocumentsRead), NeedsOwnership, AllowAssignedOrSelf},
		{"unrelated", domain.NewPermissionSet(domain.PermStudentsOwnRead), Deny, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.granted, req)
			assert.Equal(t, tt.decision, got.Decision)
			assert.Equal(t, tt.modes, got.Modes)
			assert.Equal(t, got, Evaluate(tt.granted, req))
		})
	}
}

func TestRequirementOrDoesNotAlias(t *testing.T) {
	base := AnyOf(domain.PermStudentsRead).Or(domain.PermStudentsOwnRead, AllowAssigned)
	a := base.Or(domain.PermDocumentsOwnRead, AllowSelf)
	b := base.Or(domain.PermStudentsOwnUpdate, AllowSelf)

	assert.Len(t, base.Scoped, 1)
	assert.Equal(t, domain.PermDocumentsOwnRead, a.Scoped[1].Permission)
	assert.Equal(t, domain.PermStudentsOwnUpdate, b.Scoped[1].Permission)
}

func TestCounselorScenario(t *testing.T) {
	const counselor, stranger = "user-u", "user-v"
	student := &domain.User{
		ID:   "student-s",
		Role: domain.RoleStudent,
		Student: &domain.StudentFields{
			Assignment: domain.Assignment{CounselorID: strPtr(counselor)},
		},
	}
	req := AnyOf(domain.PermStudentsRead).Or(domain.PermStudentsOwnRead, AllowAssignedOrSelf)
	granted := domain.NewPermissionSet(domain.PermStudentsOwnRead)

	result := Evaluate(granted, req)
	require.Equal(t, NeedsOwnership, result.Decision)

	assert.NoError(t, Authorize(result, counselor, student))
	assert.ErrorIs(t, Authorize(result, stranger, student), domain.ErrForbidden)
}

func TestIsAssignedEachPointer(t *testing.T) {
	const subject = "emp-1"
	cases := map[string]domain.Assignment{
		"admission associate": {AdmissionAssociateID: strPtr(subject)},
		"counselor":           {CounselorID: strPtr(subject)},
		"sop writer":          {SOPWriterID: strPtr(subject)},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			res := &domain.User{ID: "client", Role: domain.RoleImmigrationClient,
				ImmigrationClient: &domain.ImmigrationClientFields{Assignment: a}}
			assert.True(t, IsAssigned(res, subject))
			assert.False(t, IsAssigned(res, "emp-2"))
		})
	}
}

func TestSelfAccessWithoutAssignments(t *testing.T) {
	student := &domain.User{ID: "student-s", Role: domain.RoleStudent, Student: &domain.StudentFields{}}

	assert.False(t, IsAssigned(student, "student-s"))
	assert.False(t, IsAssigned(student, ""))
	assert.True(t, IsSelf(student, "student-s"))

	result := Result{Decision: NeedsOwnership, Modes: AllowAssignedOrSelf}
	assert.NoError(t, Authorize(result, "student-s", student))

	assignedOnly := Result{Decision: NeedsOwnership, Modes: AllowAssigned}
	assert.ErrorIs(t, Authorize(assignedOnly, "student-s", student), domain.ErrForbidden)
}

func TestAuthorizeDenyAndNilResource(t *testing.T) {
	assert.ErrorIs(t, Authorize(Result{Decision: Deny}, "x", nil), domain.ErrForbidden)
	assert.ErrorIs(t, Authorize(Result{Decision: NeedsOwnership, Modes: AllowAssignedOrSelf}, "x", nil), domain.ErrForbidden)
	assert.NoError(t, Authorize(Result{Decision: Allow}, "x", nil))
}

func TestAssigneesIgnoresNonAssignableRoles(t *testing.T) {
	employee := &domain.User{ID: "e", Role: domain.RoleEmployee, Employee: &domain.EmployeeFields{}}
	assert.Empty(t, employee.Assignees().IDs())
}
