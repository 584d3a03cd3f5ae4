package authz

import "edvisa-admin/internal/core/domain"

// Decision is the outcome of evaluating a requirement against claims
type Decision int

const (
	// Deny: no permission in the requirement is held
	Deny Decision = iota
	// NeedsOwnership: only a scoped permission matched; the caller must
	// still pass the ownership check against the target resource
	NeedsOwnership
	// Allow: a broad permission matched
	Allow
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NeedsOwnership:
		return "needs_ownership"
	default:
		return "deny"
	}
}

// Mode selects which ownership relations satisfy a scoped permission
type Mode uint8

const (
	// AllowAssigned accepts an admission associate, counselor or SOP writer
	AllowAssigned Mode = 1 << iota
	// AllowSelf accepts the resource owner
	AllowSelf

	AllowAssignedOrSelf = AllowAssigned | AllowSelf
)

// Scope is a scoped ("own") permission and the relations it grants through
type Scope struct {
	Permission domain.Permission
	Mode       Mode
}

// Requirement is an endpoint's declared permission list. Holding any one
// entry is sufficient; there is no AND composition.
type Requirement struct {
	Broad  []domain.Permission
	Scoped []Scope
}

// AnyOf declares a flat OR list of broad permissions
func AnyOf(perms ...domain.Permission) Requirement {
	return Requirement{Broad: perms}
}

// Or adds a scoped tier entry
func (r Requirement) Or(p domain.Permission, mode Mode) Requirement {
	scoped := make([]Scope, len(r.Scoped), len(r.Scoped)+1)
	copy(scoped, r.Scoped)
	r.Scoped = append(scoped, Scope{Permission: p, Mode: mode})
	return r
}

// Permissions lists every permission named by the requirement
func (r Requirement) Permissions() []domain.Permission {
	out := make([]domain.Permission, 0, len(r.Broad)+len(r.Scoped))
	out = append(out, r.Broad...)
	for _, s := range r.Scoped {
		out = append(out, s.Permission)
	}
	return out
}

// Result carries the decision and, for NeedsOwnership, the union of the
// relation modes of every matched scoped permission.
type Result struct {
	Decision Decision
	Modes    Mode
}

// Evaluate decides a requirement against granted permissions. It is pure:
// the same inputs always give the same result.
func Evaluate(granted domain.PermissionSet, req Requirement) Result {
	if granted.HasAny(req.Broad...) {
		return Result{Decision: Allow}
	}
	var modes Mode
	for _, s := range req.Scoped {
		if granted.Has(s.Permission) {
			modes |= s.Mode
		}
	}
	if modes != 0 {
		return Result{Decision: NeedsOwnership, Modes: modes}
	}
	return Result{Decision: Deny}
}
