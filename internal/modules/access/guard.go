// Package access decides whether a principal may reach a route or
// action, based on static classification and permission tables.
package access

import (
	"strings"

	"carrental/internal/domain"
)

type ReasonCode string

const (
	ReasonNotAuthenticated        ReasonCode = "NOT_AUTHENTICATED"
	ReasonInsufficientPrivileges  ReasonCode = "INSUFFICIENT_PRIVILEGES"
	ReasonInsufficientPermissions ReasonCode = "INSUFFICIENT_PERMISSIONS"
	ReasonRoleNotAllowed          ReasonCode = "ROLE_NOT_ALLOWED"
	ReasonRouteForbidden          ReasonCode = "ROUTE_FORBIDDEN"
	ReasonSystemError             ReasonCode = "SYSTEM_ERROR"
)

// Decision is the guard's verdict. Every denial carries a machine
// readable reason and a suggested redirect route.
type Decision struct {
	Allowed  bool       `json:"allowed"`
	Reason   ReasonCode `json:"reason,omitempty"`
	Redirect string     `json:"redirect,omitempty"`
}

func allowed() Decision { return Decision{Allowed: true} }

func denied(reason ReasonCode, redirect string) Decision {
	return Decision{Allowed: false, Reason: reason, Redirect: redirect}
}

// Request carries everything the guard needs for one decision.
// Session is nil for unauthenticated callers; RequiredRole and
// RequiredPermission are optional extra constraints on top of the
// route classification.
type Request struct {
	Path               string
	Session            *domain.Session
	RequiredRole       domain.Role
	RequiredPermission string
}

type Guard struct {
	tables Tables
}

func NewGuard(tables Tables) *Guard {
	return &Guard{tables: tables}
}

// Check applies the decision algorithm in priority order; the first
// matching rule wins.
func (g *Guard) Check(req Request) Decision {
	// 1. Public routes are open to everyone.
	if g.isPublic(req.Path) {
		return allowed()
	}

	// 2. Everything else needs a session.
	if req.Session == nil {
		return denied(ReasonNotAuthenticated, "/")
	}
	role := req.Session.Role
	home := g.dashboardFor(role)

	// Explicit caller constraints bind regardless of how the route
	// itself is classified.
	if req.RequiredRole != "" && role != req.RequiredRole {
		return denied(ReasonInsufficientPrivileges, home)
	}
	if req.RequiredPermission != "" && !g.HasPermission(role, req.RequiredPermission) {
		return denied(ReasonInsufficientPermissions, home)
	}

	// 3. Single-role routes decide the request either way.
	if restricted, want := g.singleRoleFor(req.Path); restricted {
		if role != want {
			return denied(ReasonInsufficientPrivileges, home)
		}
		return allowed()
	}

	// 4. Multi-role routes.
	if roles, ok := g.multiRoleFor(req.Path); ok {
		if !containsRole(roles, role) {
			return denied(ReasonRoleNotAllowed, home)
		}
		return allowed()
	}

	// 5. Authenticated, no specific rule.
	return allowed()
}

// HasPermission reports whether the role's capability flag is set.
func (g *Guard) HasPermission(role domain.Role, permission string) bool {
	perms, ok := g.tables.Permissions[role]
	if !ok {
		return false
	}
	return perms[permission]
}

// DashboardFor returns the home route for a role, "/" when unknown.
func (g *Guard) DashboardFor(role domain.Role) string {
	return g.dashboardFor(role)
}

// Summary describes what a role can reach; used by the UI layer to
// build navigation without re-deriving the tables.
type Summary struct {
	Authenticated    bool            `json:"authenticated"`
	Role             domain.Role     `json:"role,omitempty"`
	Permissions      map[string]bool `json:"permissions"`
	AccessibleRoutes []string        `json:"accessible_routes"`
}

func (g *Guard) AccessSummary(sess *domain.Session) Summary {
	if sess == nil {
		return Summary{
			Authenticated:    false,
			Permissions:      map[string]bool{},
			AccessibleRoutes: append([]string(nil), g.tables.Public...),
		}
	}

	role := sess.Role
	routes := append([]string(nil), g.tables.Public...)
	routes = append(routes, g.tables.RoleRoutes[role]...)
	for route, roles := range g.tables.MultiRole {
		if containsRole(roles, role) {
			routes = append(routes, route)
		}
	}

	perms := make(map[string]bool, len(g.tables.Permissions[role]))
	for k, v := range g.tables.Permissions[role] {
		perms[k] = v
	}

	return Summary{
		Authenticated:    true,
		Role:             role,
		Permissions:      perms,
		AccessibleRoutes: routes,
	}
}

func (g *Guard) isPublic(path string) bool {
	return matchAny(g.tables.Public, path)
}

func (g *Guard) singleRoleFor(path string) (bool, domain.Role) {
	for role, routes := range g.tables.RoleRoutes {
		if matchAny(routes, path) {
			return true, role
		}
	}
	return false, ""
}

func (g *Guard) multiRoleFor(path string) ([]domain.Role, bool) {
	for route, roles := range g.tables.MultiRole {
		if matchRoute(route, path) {
			return roles, true
		}
	}
	return nil, false
}

func (g *Guard) dashboardFor(role domain.Role) string {
	if home, ok := g.tables.Dashboards[role]; ok {
		return home
	}
	return "/"
}

func matchAny(routes []string, path string) bool {
	for _, r := range routes {
		if matchRoute(r, path) {
			return true
		}
	}
	return false
}

// matchRoute matches exactly, or by prefix when the pattern ends in "*".
func matchRoute(pattern, path string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == path
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
