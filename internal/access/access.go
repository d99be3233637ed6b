// Package access decides which roles may reach which parts of the
// application. Decisions are made against a static permission table that is
// compiled into a casbin enforcer once, at construction.
package access

import (
	_ "embed"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/shepherd-church/shepherd/internal/models"
)

//go:embed model.conf
var modelConf string

// Action is an operation within a module.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Destructive reports whether the action needs an elevated role on top of
// module access.
func (a Action) Destructive() bool {
	return a == ActionEdit || a == ActionDelete
}

// Evaluator answers allow/deny questions. It is read-only after
// construction and safe for concurrent use.
type Evaluator struct {
	enforcer *casbin.Enforcer
	table    Table
	fallback string
}

// NewEvaluator compiles table into an enforcer. fallback is the redirect
// target for denied navigations; empty means DefaultFallbackPath.
func NewEvaluator(table Table, fallback string) (*Evaluator, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid permission table: %w", err)
	}
	if fallback == "" {
		fallback = DefaultFallbackPath
	}

	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	rules := make([][]string, 0, len(table)*len(models.Roles))
	copied := make(Table, len(table))
	for path, roles := range table {
		copied[path] = slices.Clone(roles)
		for _, r := range roles {
			rules = append(rules, []string{string(r), path})
		}
	}
	if len(rules) > 0 {
		if _, err := e.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("failed to load policies: %w", err)
		}
	}

	return &Evaluator{enforcer: e, table: copied, fallback: fallback}, nil
}

// Fallback returns the redirect target for denied navigations.
func (e *Evaluator) Fallback() string {
	return e.fallback
}

// IsAllowed reports whether role may reach path. Paths missing from the
// table are closed to everyone, and unknown roles have no permissions.
func (e *Evaluator) IsAllowed(role models.Role, path string) bool {
	if !role.Valid() {
		return false
	}
	if _, listed := e.table[path]; !listed {
		return false
	}
	ok, err := e.enforcer.Enforce(string(role), path)
	if err != nil {
		slog.Debug("casbin enforce failed", "role", role, "path", path, "error", err)
		return false
	}
	return ok
}

// IsAllowedUser is IsAllowed for a possibly unauthenticated user.
func (e *Evaluator) IsAllowedUser(user *models.User, path string) bool {
	if user == nil {
		return false
	}
	return e.IsAllowed(user.Role, path)
}

// CanPerform checks module access and, for edit and delete, additionally
// requires super_admin or admin.
func (e *Evaluator) CanPerform(role models.Role, module string, action Action) bool {
	if !e.IsAllowed(role, ModulePath(module)) {
		return false
	}
	if action.Destructive() {
		return role.Elevated()
	}
	return true
}

// Resolve returns where a navigation to path should end up for role.
func (e *Evaluator) Resolve(role models.Role, path string) (string, bool) {
	if e.IsAllowed(role, RequestPath(path)) {
		return path, true
	}
	return e.fallback, false
}

// AllowedPaths lists the table paths role may visit, sorted.
func (e *Evaluator) AllowedPaths(role models.Role) []string {
	var out []string
	for _, p := range e.table.Paths() {
		if e.IsAllowed(role, p) {
			out = append(out, p)
		}
	}
	return out
}

// Paths returns every path in the permission table, sorted.
func (e *Evaluator) Paths() []string {
	return e.table.Paths()
}

// ModulePath returns the table key for a module name.
func ModulePath(module string) string {
	return "/" + strings.Trim(module, "/")
}

// RequestPath reduces a request URL path to its table key: the API prefix
// is dropped and only the first segment kept.
func RequestPath(urlPath string) string {
	p := strings.TrimPrefix(urlPath, "/api/v1")
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return "/" + p
}
