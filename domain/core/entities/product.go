package entities

import "github.com/shopspring/decimal"

// Product is the aggregate owned by the products subgraph. Price keeps full
// decimal precision; stores that cannot hold a decimal natively persist its
// canonical string form.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductPatch carries the fields of a partial update.
type ProductPatch struct {
	Name  *string
	Price *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil
}

// Apply returns a copy of pr with the supplied patch fields overwritten.
func (pr Product) Apply(p ProductPatch) Product {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Price != nil {
		pr.Price = *p.Price
	}
	return pr
}

// WithDefaultID returns pr with a generated id when the caller supplied none.
func (pr Product) WithDefaultID() Product {
	if pr.ID == "" {
		pr.ID = NewID()
	}
	return pr
}

// Equal compares two products field by field, treating prices numerically.
func (pr Product) Equal(other Product) bool {
	return pr.ID == other.ID && pr.Name == other.Name && pr.Price.Equal(other.Price)
}
