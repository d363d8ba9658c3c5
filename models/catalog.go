package models

import "github.com/shopspring/decimal"

// CatalogItem is a kit or product offered to vendors.
type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        ItemKind        `json:"kind"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitLabel   string          `json:"unit_label,omitempty"`
	Description string          `json:"description,omitempty"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	Available   bool            `json:"available"`
}

// Candidate converts a catalog entry into something the cart accepts.
func (c CatalogItem) Candidate() CartItemCandidate {
	return CartItemCandidate{
		ItemID:      c.ID,
		DisplayName: c.Name,
		UnitPrice:   c.UnitPrice,
		Category:    c.Category,
		Kind:        c.Kind,
		UnitLabel:   c.UnitLabel,
	}
}

// CatalogFilter narrows a catalog listing. Empty fields match everything.
type CatalogFilter struct {
	Kind     ItemKind
	Category string
}

// Matches reports whether item satisfies the filter.
func (f CatalogFilter) Matches(item CatalogItem) bool {
	if f.Kind != "" && item.Kind != f.Kind {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	return true
}
