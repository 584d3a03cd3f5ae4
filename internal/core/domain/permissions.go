package domain

import (
	"fmt"
	"sort"
)

// Permission is a named capability grant. Names are stable: they are
// persisted in permission_assignments and embedded in access tokens.
type Permission string

// Platform permissions
const (
	PermUsersRead   Permission = "Users_Read"
	PermUsersCreate Permission = "Users_Create"
	PermUsersUpdate Permission = "Users_Update"
	PermUsersDelete Permission = "Users_Delete"

	PermPermissionsRead   Permission = "Permissions_Read"
	PermPermissionsUpdate Permission = "Permissions_Update"

	PermDashboardRead Permission = "Dashboard_Read"
)

// Student permissions
const (
	PermStudentsRead      Permission = "Students_Read"
	PermStudentsUpdate    Permission = "Students_Update"
	PermStudentsAssign    Permission = "Students_Assign"
	PermStudentsOwnRead   Permission = "Students_Own_Read"
	PermStudentsOwnUpdate Permission = "Students_Own_Update"

	PermStudentsOwnDocumentsRead   Permission = "Students_Own_Documents_Read"
	PermStudentsOwnDocumentsCreate Permission = "Students_Own_Documents_Create"
)

// Immigration client permissions
const (
	PermImmigrationClientsRead      Permission = "ImmigrationClients_Read"
	PermImmigrationClientsUpdate    Permission = "ImmigrationClients_Update"
	PermImmigrationClientsAssign    Permission = "ImmigrationClients_Assign"
	PermImmigrationClientsOwnRead   Permission = "ImmigrationClients_Own_Read"
	PermImmigrationClientsOwnUpdate Permission = "ImmigrationClients_Own_Update"

	PermImmigrationClientsOwnDocumentsRead   Permission = "ImmigrationClients_Own_Documents_Read"
	PermImmigrationClientsOwnDocumentsCreate Permission = "ImmigrationClients_Own_Documents_Create"
)

// Document permissions
const (
	PermDocumentsRead      Permission = "Documents_Read"
	PermDocumentsCreate    Permission = "Documents_Create"
	PermDocumentsOwnRead   Permission = "Documents_Own_Read"
	PermDocumentsOwnCreate Permission = "Documents_Own_Create"
)

var allPermissions = []Permission{
	PermUsersRead,
	PermUsersCreate,
	PermUsersUpdate,
	PermUsersDelete,
	PermPermissionsRead,
	PermPermissionsUpdate,
	PermDashboardRead,
	PermStudentsRead,
	PermStudentsUpdate,
	PermStudentsAssign,
	PermStudentsOwnRead,
	PermStudentsOwnUpdate,
	PermStudentsOwnDocumentsRead,
	PermStudentsOwnDocumentsCreate,
	PermImmigrationClientsRead,
	PermImmigrationClientsUpdate,
	PermImmigrationClientsAssign,
	PermImmigrationClientsOwnRead,
	PermImmigrationClientsOwnUpdate,
	PermImmigrationClientsOwnDocumentsRead,
	PermImmigrationClientsOwnDocumentsCreate,
	PermDocumentsRead,
	PermDocumentsCreate,
	PermDocumentsOwnRead,
	PermDocumentsOwnCreate,
}

var permissionIndex = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// AllPermissions returns a copy of the catalog in declaration order
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// Valid reports whether p is in the catalog
func (p Permission) Valid() bool {
	_, ok := permissionIndex[p]
	return ok
}

// ParsePermission converts a stored or claimed name into a Permission
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// PermissionSet is an unordered set of grants; duplicates collapse.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from perms
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is granted
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAny reports whether at least one of perms is granted
func (s PermissionSet) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// Sorted returns the grants ordered by name
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted grant names
func (s PermissionSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}
