package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"edvisa-admin/internal/core/domain"

	"gopkg.in/yaml.v3"
)

// wildcard expands to every permission in the catalog
const wildcard = "*"

//go:embed defaults.yaml
var embeddedDefaults []byte

// ErrNoDefaults is returned for a role without a registered default set
var ErrNoDefaults = errors.New("authz: no default permissions registered for role")

// Catalog maps each role to the permissions granted at creation time.
// It is loaded once and read-only afterwards.
type Catalog struct {
	defaults map[domain.Role][]domain.Permission
}

type defaultsFile struct {
	Defaults map[string][]string `yaml:"defaults"`
}

// NewCatalog validates defaults and builds a Catalog. Every role of the
// enumeration must be present; duplicate entries collapse.
func NewCatalog(defaults map[domain.Role][]domain.Permission) (*Catalog, error) {
	c := &Catalog{defaults: make(map[domain.Role][]domain.Permission, len(defaults))}
	for role, perms := range defaults {
		if !role.Valid() {
			return nil, fmt.Errorf("authz: %w: %q", domain.ErrUnknownRole, role)
		}
		set := domain.NewPermissionSet()
		for _, p := range perms {
			if !p.Valid() {
				return nil, fmt.Errorf("authz: role %s: %w: %q", role, domain.ErrUnknownPermission, p)
			}
			set[p] = struct{}{}
		}
		c.defaults[role] = set.Sorted()
	}
	for _, role := range domain.AllRoles() {
		if _, ok := c.defaults[role]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoDefaults, role)
		}
	}
	return c, nil
}

// LoadCatalog reads the defaults table from path, or from the embedded
// defaults.yaml when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	raw := embeddedDefaults
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("authz: read defaults file: %w", err)
		}
		raw = b
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML defaults table
func ParseCatalog(raw []byte) (*Catalog, error) {
	var file defaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("authz: decode defaults: %w", err)
	}

	defaults := make(map[domain.Role][]domain.Permission, len(file.Defaults))
	for name, entries := range file.Defaults {
		role, err := domain.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("authz: %w", err)
		}
		perms := make([]domain.Permission, 0, len(entries))
		for _, entry := range entries {
			if entry == wildcard {
				perms = append(perms, domain.AllPermissions()...)
				continue
			}
			perms = append(perms, domain.Permission(entry))
		}
		defaults[role] = perms
	}
	return NewCatalog(defaults)
}

// DefaultsFor returns the permissions granted to role at creation time
func (c *Catalog) DefaultsFor(role domain.Role) ([]domain.Permission, error) {
	perms, ok := c.defaults[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDefaults, role)
	}
	out := make([]domain.Permission, len(perms))
	copy(out, perms)
	return out, nil
}

// Snapshot returns the full role -> defaults table
func (c *Catalog) Snapshot() map[domain.Role][]domain.Permission {
	out := make(map[domain.Role][]domain.Permission, len(c.defaults))
	for role := range c.defaults {
		out[role], _ = c.DefaultsFor(role)
	}
	return out
}
