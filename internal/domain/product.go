package domain

import "time"

// Product is a catalog entry. Price is in minor units (kobo). Inactive
// products stay in the table for old order lines but cannot be added to a
// cart or listed publicly.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Active      bool      `json:"active"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CartLineFor snapshots the product into a cart line with the given quantity.
func (p *Product) CartLineFor(qty int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		ImageURL:  p.ImageURL,
	}
}
