package access

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/shepherd-church/shepherd/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultFallbackPath is where denied page navigations land.
const DefaultFallbackPath = "/dashboard"

// Table maps a resource path to the roles allowed to reach it. Every rule
// lists each role it permits; there is no inheritance between roles.
type Table map[string][]models.Role

// DefaultTable returns a new copy of the built-in permission table. No two
// calls share role slices, so callers may edit the result freely.
func DefaultTable() Table {
	everyone := func() []models.Role { return slices.Clone(models.Roles) }
	staff := func() []models.Role { return []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser} }
	admins := func() []models.Role { return []models.Role{models.RoleSuperAdmin, models.RoleAdmin} }
	superOnly := func() []models.Role { return []models.Role{models.RoleSuperAdmin} }

	return Table{
		"/dashboard":  everyone(),
		"/members":    staff(),
		"/attendance": staff(),
		"/donations":  admins(),
		"/events":     everyone(),
		"/forum":      everyone(),
		"/profile":    everyone(),
		"/reports":    admins(),
		"/users":      superOnly(),
		"/audit-logs": superOnly(),
	}
}

// Paths returns the table keys in sorted order.
func (t Table) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Validate rejects malformed paths and unknown roles.
func (t Table) Validate() error {
	for path, roles := range t {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("path %q must start with /", path)
		}
		for _, r := range roles {
			if !r.Valid() {
				return fmt.Errorf("path %q: invalid role %q", path, string(r))
			}
		}
	}
	return nil
}

// tableFile is the on-disk shape of a permission table:
//
//	paths:
//	  /donations: [super_admin, admin]
type tableFile struct {
	Paths map[string][]string `yaml:"paths"`
}

// LoadTable reads a permission table from a YAML file. An empty path
// returns the default table.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permission table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse permission table: %w", err)
	}

	t := make(Table, len(f.Paths))
	for p, names := range f.Paths {
		roles := make([]models.Role, 0, len(names))
		for _, n := range names {
			r, err := models.ParseRole(n)
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", p, err)
			}
			roles = append(roles, r)
		}
		t[p] = roles
	}
	return t, t.Validate()
}
