package authz

import "edvisa-admin/internal/core/domain"

// Resource is a target that can be owned and carry staff assignments
type Resource interface {
	OwnerID() string
	Assignees() domain.Assignment
}

// IsAssigned reports whether subjectID is the resource's admission
// associate, counselor or SOP writer. Unset pointers never match.
func IsAssigned(res Resource, subjectID string) bool {
	if res == nil || subjectID == "" {
		return false
	}
	for _, id := range res.Assignees().IDs() {
		if id == subjectID {
			return true
		}
	}
	return false
}

// IsSelf reports whether the resource is owned by subjectID
func IsSelf(res Resource, subjectID string) bool {
	if res == nil || subjectID == "" {
		return false
	}
	return res.OwnerID() == subjectID
}

// Authorize completes a two-phase check: an Allow result passes outright,
// a NeedsOwnership result passes only if one of its modes holds for res.
// Every other outcome is domain.ErrForbidden.
func Authorize(result Result, subjectID string, res Resource) error {
	switch result.Decision {
	case Allow:
		return nil
	case NeedsOwnership:
		if result.Modes&AllowAssigned != 0 && IsAssigned(res, subjectID) {
			return nil
		}
		if result.Modes&AllowSelf != 0 && IsSelf(res, subjectID) {
			return nil
		}
	}
	return domain.ErrForbidden
}
