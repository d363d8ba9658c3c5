package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/services"
)

func identity(role models.Role) *models.Identity {
	return &models.Identity{ID: "id-" + string(role), Role: role}
}

func TestViewRouter_Resolve(t *testing.T) {
	router := services.NewViewRouter(services.DashboardRoutes)

	tests := []struct {
		name     string
		path     string
		identity *models.Identity
		allowed  bool
		view     string
		redirect string
	}{
		{"Public Landing", "/", nil, true, "landing", ""},
		{"Anonymous Login", "/login", nil, true, "login", ""},
		{"Anonymous Gated", "/vendor/cart", nil, false, "", "/login"},
		{"Anonymous Unknown", "/nowhere", nil, false, "", "/login"},
		{"Vendor Cart", "/vendor/cart", identity(models.RoleVendor), true, "vendor-cart", ""},
		{"Trailing Slash", "/vendor/cart/", identity(models.RoleVendor), true, "vendor-cart", ""},
		{"Query Ignored", "/vendor/kits?category=chaat", identity(models.RoleVendor), true, "vendor-kits", ""},
		{"Supplier On Vendor Page", "/vendor/cart", identity(models.RoleSupplier), false, "", "/supplier/dashboard"},
		{"Admin On Delivery Page", "/delivery/deliveries", identity(models.RoleAdmin), false, "", "/admin/dashboard"},
		{"Signed In On Login", "/login", identity(models.RoleDeliveryPartner), false, "", "/delivery/dashboard"},
		{"Signed In On Register", "/register", identity(models.RoleVendor), false, "", "/vendor/dashboard"},
		{"Signed In Unknown", "/nowhere", identity(models.RoleSupplier), false, "", "/supplier/dashboard"},
		{"Shared Profile", "/profile", identity(models.RoleDeliveryPartner), true, "profile", ""},
		{"Anonymous Profile", "/profile", nil, false, "", "/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := router.Resolve(tt.path, tt.identity)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.view, d.View)
			assert.Equal(t, tt.redirect, d.RedirectTo)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestViewRouter_Visible(t *testing.T) {
	router := services.NewViewRouter(services.DashboardRoutes)

	paths := func(routes []models.ViewRoute) []string {
		out := make([]string, 0, len(routes))
		for _, r := range routes {
			out = append(out, r.Path)
		}
		return out
	}

	assert.Equal(t, []string{"/", "/login", "/register"}, paths(router.Visible(nil)))
	assert.Equal(t, []string{"/", "/supplier/dashboard", "/supplier/inventory", "/supplier/orders", "/profile"},
		paths(router.Visible(identity(models.RoleSupplier))))

	vendor := paths(router.Visible(identity(models.RoleVendor)))
	assert.Contains(t, vendor, "/vendor/checkout")
	assert.NotContains(t, vendor, "/admin/users")
	assert.NotContains(t, vendor, "/login")
}

func TestHomePath(t *testing.T) {
	assert.Equal(t, "/vendor/dashboard", services.HomePath(models.RoleVendor))
	assert.Equal(t, "/delivery/dashboard", services.HomePath(models.RoleDeliveryPartner))
	assert.Equal(t, "/", services.HomePath(models.Role("chef")))
}
