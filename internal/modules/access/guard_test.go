package access

import (
	"testing"

	"carrental/internal/domain"

	"github.com/stretchr/testify/assert"
)

func sessionFor(role domain.Role) *domain.Session {
	return &domain.Session{ID: "s-1", PrincipalID: 10, Role: role}
}

func TestGuard_Check(t *testing.T) {
	guard := NewGuard(DefaultTables())

	tests := []struct {
		name     string
		req      Request
		allowed  bool
		reason   ReasonCode
		redirect string
	}{
		{
			name:    "public route without session",
			req:     Request{Path: "/login"},
			allowed: true,
		},
		{
			name:    "public route with session",
			req:     Request{Path: "/about", Session: sessionFor(domain.RoleCustomer)},
			allowed: true,
		},
		{
			name:     "protected route without session",
			req:      Request{Path: "/dashboard/admin"},
			allowed:  false,
			reason:   ReasonNotAuthenticated,
			redirect: "/",
		},
		{
			name:     "hoster on admin dashboard",
			req:      Request{Path: "/dashboard/admin", Session: sessionFor(domain.RoleHoster)},
			allowed:  false,
			reason:   ReasonInsufficientPrivileges,
			redirect: "/dashboard/hoster",
		},
		{
			name:    "admin on admin dashboard",
			req:     Request{Path: "/dashboard/admin", Session: sessionFor(domain.RoleAdmin)},
			allowed: true,
		},
		{
			name:    "admin dashboard subpath matches by prefix",
			req:     Request{Path: "/dashboard/admin/users", Session: sessionFor(domain.RoleAdmin)},
			allowed: true,
		},
		{
			name:     "customer on hoster dashboard",
			req:      Request{Path: "/dashboard/hoster", Session: sessionFor(domain.RoleCustomer)},
			allowed:  false,
			reason:   ReasonInsufficientPrivileges,
			redirect: "/cars",
		},
		{
			name:    "multi-role route admits every role",
			req:     Request{Path: "/api/bookings", Session: sessionFor(domain.RoleHoster)},
			allowed: true,
		},
		{
			name: "explicit role requirement denies mismatch",
			req: Request{
				Path:         "/reports",
				Session:      sessionFor(domain.RoleCustomer),
				RequiredRole: domain.RoleAdmin,
			},
			allowed:  false,
			reason:   ReasonInsufficientPrivileges,
			redirect: "/cars",
		},
		{
			name: "permission requirement denies missing capability",
			req: Request{
				Path:               "/api/profile",
				Session:            sessionFor(domain.RoleCustomer),
				RequiredPermission: PermManageFleet,
			},
			allowed:  false,
			reason:   ReasonInsufficientPermissions,
			redirect: "/cars",
		},
		{
			name: "permission requirement passes with capability",
			req: Request{
				Path:               "/api/profile",
				Session:            sessionFor(domain.RoleCustomer),
				RequiredPermission: PermBookCars,
			},
			allowed: true,
		},
		{
			name:    "authenticated route with no specific rule",
			req:     Request{Path: "/unclassified", Session: sessionFor(domain.RoleHoster)},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := guard.Check(tt.req)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.redirect, d.Redirect)
		})
	}
}

// A passing single-role match decides the request; later rules must not
// overturn it even when the tables overlap.
func TestGuard_SingleRoleMatchWins(t *testing.T) {
	guard := NewGuard(Tables{
		RoleRoutes: map[domain.Role][]string{
			domain.RoleHoster: {"/earnings"},
		},
		MultiRole: map[string][]domain.Role{
			"/earnings": {domain.RoleAdmin},
		},
		Dashboards: map[domain.Role]string{
			domain.RoleHoster: "/dashboard/hoster",
		},
	})

	d := guard.Check(Request{Path: "/earnings", Session: sessionFor(domain.RoleHoster)})
	assert.True(t, d.Allowed)

	d = guard.Check(Request{Path: "/earnings", Session: sessionFor(domain.RoleCustomer)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInsufficientPrivileges, d.Reason)
}

func TestGuard_HasPermission(t *testing.T) {
	guard := NewGuard(DefaultTables())

	assert.True(t, guard.HasPermission(domain.RoleAdmin, PermManageUsers))
	assert.True(t, guard.HasPermission(domain.RoleHoster, PermManageOwnCars))
	assert.False(t, guard.HasPermission(domain.RoleHoster, PermManageUsers))
	assert.False(t, guard.HasPermission(domain.RoleCustomer, PermViewReports))
	assert.False(t, guard.HasPermission("ghost", PermBookCars))
}

func TestGuard_DashboardFor(t *testing.T) {
	guard := NewGuard(DefaultTables())

	assert.Equal(t, "/dashboard/admin", guard.DashboardFor(domain.RoleAdmin))
	assert.Equal(t, "/dashboard/hoster", guard.DashboardFor(domain.RoleHoster))
	assert.Equal(t, "/cars", guard.DashboardFor(domain.RoleCustomer))
	assert.Equal(t, "/", guard.DashboardFor("ghost"))
}

func TestGuard_AccessSummary(t *testing.T) {
	guard := NewGuard(DefaultTables())

	anon := guard.AccessSummary(nil)
	assert.False(t, anon.Authenticated)
	assert.Empty(t, anon.Permissions)
	assert.Contains(t, anon.AccessibleRoutes, "/login")

	hoster := guard.AccessSummary(sessionFor(domain.RoleHoster))
	assert.True(t, hoster.Authenticated)
	assert.Equal(t, domain.RoleHoster, hoster.Role)
	assert.True(t, hoster.Permissions[PermManageOwnCars])
	assert.False(t, hoster.Permissions[PermManageUsers])
	assert.Contains(t, hoster.AccessibleRoutes, "/dashboard/hoster")
	assert.Contains(t, hoster.AccessibleRoutes, "/api/bookings")
	assert.NotContains(t, hoster.AccessibleRoutes, "/dashboard/admin")
}
