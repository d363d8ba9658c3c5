package services

import (
	"strings"

	"github.com/yashrajoria/streetkit/models"
)

const loginPath = "/login"

var (
	vendorOnly   = []models.Role{models.RoleVendor}
	supplierOnly = []models.Role{models.RoleSupplier}
	adminOnly    = []models.Role{models.RoleAdmin}
	deliveryOnly = []models.Role{models.RoleDeliveryPartner}
)

// DashboardRoutes is the static view table of the dashboard.
var DashboardRoutes = []models.ViewRoute{
	{Path: "/", View: "landing"},
	{Path: "/login", View: "login"},
	{Path: "/register", View: "register"},

	{Path: "/vendor/dashboard", View: "vendor-dashboard", AllowedRoles: vendorOnly},
	{Path: "/vendor/kits", View: "vendor-kits", AllowedRoles: vendorOnly},
	{Path: "/vendor/cart", View: "vendor-cart", AllowedRoles: vendorOnly},
	{Path: "/vendor/checkout", View: "vendor-checkout", AllowedRoles: vendorOnly},
	{Path: "/vendor/orders", View: "vendor-orders", AllowedRoles: vendorOnly},
	{Path: "/vendor/tracking", View: "vendor-tracking", AllowedRoles: vendorOnly},

	{Path: "/supplier/dashboard", View: "supplier-dashboard", AllowedRoles: supplierOnly},
	{Path: "/supplier/inventory", View: "supplier-inventory", AllowedRoles: supplierOnly},
	{Path: "/supplier/orders", View: "supplier-orders", AllowedRoles: supplierOnly},

	{Path: "/admin/dashboard", View: "admin-dashboard", AllowedRoles: adminOnly},
	{Path: "/admin/users", View: "admin-users", AllowedRoles: adminOnly},
	{Path: "/admin/suppliers", View: "admin-suppliers", AllowedRoles: adminOnly},
	{Path: "/admin/analytics", View: "admin-analytics", AllowedRoles: adminOnly},

	{Path: "/delivery/dashboard", View: "delivery-dashboard", AllowedRoles: deliveryOnly},
	{Path: "/delivery/deliveries", View: "delivery-deliveries", AllowedRoles: deliveryOnly},

	{Path: "/profile", View: "profile", AllowedRoles: models.AllRoles},
}

var roleHome = map[models.Role]string{
	models.RoleVendor:          "/vendor/dashboard",
	models.RoleSupplier:        "/supplier/dashboard",
	models.RoleAdmin:           "/admin/dashboard",
	models.RoleDeliveryPartner: "/delivery/dashboard",
}

// HomePath is the landing view of a role.
func HomePath(role models.Role) string {
	if p, ok := roleHome[role]; ok {
		return p
	}
	return "/"
}

// ViewRouter decides which dashboard view a caller may see.
type ViewRouter struct {
	routes map[string]models.ViewRoute
	order  []models.ViewRoute
}

func NewViewRouter(routes []models.ViewRoute) *ViewRouter {
	r := &ViewRouter{routes: make(map[string]models.ViewRoute, len(routes)), order: routes}
	for _, route := range routes {
		r.routes[route.Path] = route
	}
	return r
}

// Resolve decides what happens when identity (nil when anonymous) navigates to path.
func (r *ViewRouter) Resolve(path string, identity *models.Identity) models.RouteDecision {
	path = normalizePath(path)
	decision := models.RouteDecision{Path: path}

	route, known := r.routes[path]
	switch {
	case !known && identity == nil:
		decision.RedirectTo = loginPath
		decision.Reason = "unknown path"
	case !known:
		decision.RedirectTo = HomePath(identity.Role)
		decision.Reason = "unknown path"
	case identity != nil && (path == "/login" || path == "/register"):
		decision.RedirectTo = HomePath(identity.Role)
		decision.Reason = "already signed in"
	case route.Public():
		decision.Allowed = true
		decision.View = route.View
	case identity == nil:
		decision.RedirectTo = loginPath
		decision.Reason = "sign in required"
	case !IsAuthorized(*identity, route.AllowedRoles):
		decision.RedirectTo = HomePath(identity.Role)
		decision.Reason = "not available for role " + string(identity.Role)
	default:
		decision.Allowed = true
		decision.View = route.View
	}
	return decision
}

// Visible lists the routes identity may open, in table order. Anonymous callers see public routes only.
func (r *ViewRouter) Visible(identity *models.Identity) []models.ViewRoute {
	out := make([]models.ViewRoute, 0, len(r.order))
	for _, route := range r.order {
		if route.Public() {
			if identity == nil || (route.Path != "/login" && route.Path != "/register") {
				out = append(out, route)
			}
			continue
		}
		if identity != nil && IsAuthorized(*identity, route.AllowedRoles) {
			out = append(out, route)
		}
	}
	return out
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
