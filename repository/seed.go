package repository

import (
	"github.com/shopspring/decimal"
	"github.com/yashrajoria/streetkit/models"
)

// DemoIdentities is the directory used when no database is configured. One account per role.
func DemoIdentities() []models.Identity {
	return []models.Identity{
		{ID: "b7f1c2a0-0000-4000-8000-000000000001", Name: "Ravi Kumar", PhoneNumber: "+919876543210", Role: models.RoleVendor, Location: "Chandni Chowk, Delhi"},
		{ID: "b7f1c2a0-0000-4000-8000-000000000002", Name: "Fresh Farms Supply", PhoneNumber: "+919876543211", Role: models.RoleSupplier, Location: "Azadpur Mandi, Delhi"},
		{ID: "b7f1c2a0-0000-4000-8000-000000000003", Name: "Anita Sharma", PhoneNumber: "+919876543212", Role: models.RoleAdmin},
		{ID: "b7f1c2a0-0000-4000-8000-000000000004", Name: "Suresh Yadav", PhoneNumber: "+919876543213", Role: models.RoleDeliveryPartner, Location: "Karol Bagh, Delhi"},
	}
}

// DemoCatalog is the kit and product list used when no catalog table is configured.
func DemoCatalog() []models.CatalogItem {
	const supplier = "b7f1c2a0-0000-4000-8000-000000000002"
	return []models.CatalogItem{
		{ID: "kit-pani-puri", Name: "Pani Puri Kit", Kind: models.ItemKindKit, Category: "chaat", UnitPrice: decimal.NewFromInt(850), Description: "Puris, spiced water concentrate, tamarind chutney and filling for 100 servings", SupplierID: supplier, Available: true},
		{ID: "kit-bhel-puri", Name: "Bhel Puri Kit", Kind: models.ItemKindKit, Category: "chaat", UnitPrice: decimal.NewFromInt(650), Description: "Puffed rice, sev, chutneys and masala for 80 servings", SupplierID: supplier, Available: true},
		{ID: "kit-vada-pav", Name: "Vada Pav Kit", Kind: models.ItemKindKit, Category: "snacks", UnitPrice: decimal.NewFromInt(720), Description: "Pav, potato vada mix and dry garlic chutney for 60 servings", SupplierID: supplier, Available: true},
		{ID: "kit-pav-bhaji", Name: "Pav Bhaji Kit", Kind: models.ItemKindKit, Category: "meals", UnitPrice: decimal.NewFromInt(950), Description: "Bhaji masala, vegetables and pav for 50 servings", SupplierID: supplier, Available: true},
		{ID: "kit-dosa", Name: "Dosa Kit", Kind: models.ItemKindKit, Category: "south-indian", UnitPrice: decimal.NewFromInt(1100), Description: "Batter, sambar base and coconut chutney for 70 servings", SupplierID: supplier, Available: false},
		{ID: "prd-onion", Name: "Onions", Kind: models.ItemKindProduct, Category: "vegetables", UnitPrice: decimal.NewFromInt(40), UnitLabel: "kg", SupplierID: supplier, Available: true},
		{ID: "prd-potato", Name: "Potatoes", Kind: models.ItemKindProduct, Category: "vegetables", UnitPrice: decimal.NewFromInt(30), UnitLabel: "kg", SupplierID: supplier, Available: true},
		{ID: "prd-tamarind-chutney", Name: "Tamarind Chutney", Kind: models.ItemKindProduct, Category: "condiments", UnitPrice: decimal.RequireFromString("120.50"), UnitLabel: "250g", SupplierID: supplier, Available: true},
		{ID: "prd-chaat-masala", Name: "Chaat Masala", Kind: models.ItemKindProduct, Category: "spices", UnitPrice: decimal.NewFromInt(85), UnitLabel: "100g", SupplierID: supplier, Available: true},
	}
}
