package access

import "carrental/internal/domain"

// Permission names understood by the guard.
const (
	PermManageUsers     = "canManageUsers"
	PermManageFleet     = "canManageFleet"
	PermViewReports     = "canViewReports"
	PermManageOwnCars   = "canManageOwnCars"
	PermViewOwnEarnings = "canViewOwnEarnings"
	PermBookCars        = "canBookCars"
	PermViewOwnBookings = "canViewOwnBookings"
)

// Tables is the static access configuration: route classification,
// role capabilities and dashboard homes. Supplied at construction and
// never recomputed by the guard.
type Tables struct {
	// Public routes need no session. Entries ending in "*" match by prefix.
	Public []string

	// RoleRoutes restrict a route to exactly one role.
	RoleRoutes map[domain.Role][]string

	// MultiRole routes admit any of the listed roles.
	MultiRole map[string][]domain.Role

	// Permissions maps each role to its named boolean capabilities.
	Permissions map[domain.Role]map[string]bool

	// Dashboards is the per-role home route used as the suggested
	// redirect on denials.
	Dashboards map[domain.Role]string
}

// DefaultTables mirrors the application's route map and role grants.
func DefaultTables() Tables {
	return Tables{
		Public: []string{
			"/",
			"/login",
			"/register",
			"/about",
			"/contact",
			"/terms",
			"/privacy",
		},
		RoleRoutes: map[domain.Role][]string{
			domain.RoleAdmin:    {"/dashboard/admin", "/dashboard/admin/*"},
			domain.RoleHoster:   {"/dashboard/hoster", "/dashboard/hoster/*"},
			domain.RoleCustomer: {"/cars", "/cars/*"},
		},
		MultiRole: map[string][]domain.Role{
			"/api/cars":     {domain.RoleAdmin, domain.RoleHoster, domain.RoleCustomer},
			"/api/bookings": {domain.RoleAdmin, domain.RoleHoster, domain.RoleCustomer},
			"/api/profile":  {domain.RoleAdmin, domain.RoleHoster, domain.RoleCustomer},
		},
		Permissions: map[domain.Role]map[string]bool{
			domain.RoleAdmin: {
				PermManageUsers:     true,
				PermManageFleet:     true,
				PermViewReports:     true,
				PermManageOwnCars:   true,
				PermViewOwnEarnings: true,
				PermBookCars:        true,
				PermViewOwnBookings: true,
			},
			domain.RoleHoster: {
				PermManageOwnCars:   true,
				PermViewOwnEarnings: true,
				PermViewOwnBookings: true,
			},
			domain.RoleCustomer: {
				PermBookCars:        true,
				PermViewOwnBookings: true,
			},
		},
		Dashboards: map[domain.Role]string{
			domain.RoleAdmin:    "/dashboard/admin",
			domain.RoleHoster:   "/dashboard/hoster",
			domain.RoleCustomer: "/cars",
		},
	}
}
