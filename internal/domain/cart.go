package domain

import "time"

// Cart is a per-user mutable list of lines keyed by product ID. The Version
// field drives the optimistic save in the repository: a save only succeeds if
// the stored version still matches, which prevents lost updates when two
// requests for the same session race.
type Cart struct {
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine is a single product entry. Name, price, and image are snapshotted
// from the catalog at add time; later catalog edits do not rewrite lines
// already in the cart.
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// NewCart returns an empty cart for the given user.
func NewCart(userID, currency string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Lines:     []CartLine{},
		Currency:  currency,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TotalAmount calculates the total price of all lines in minor units.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// FindLineIndex returns the index of the line for the given product, or -1.
func (c *Cart) FindLineIndex(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// AddLine merges quantity into an existing line for the product or appends a
// new one snapshotted from the given line.
func (c *Cart) AddLine(line CartLine) {
	if i := c.FindLineIndex(line.ProductID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity sets the quantity of an existing line, clamped to a minimum of
// one. Returns false if the product is not in the cart.
func (c *Cart) SetQuantity(productID int64, qty int) bool {
	i := c.FindLineIndex(productID)
	if i < 0 {
		return false
	}
	if qty < 1 {
		qty = 1
	}
	c.Lines[i].Quantity = qty
	return true
}

// RemoveLine deletes the line for the product. Removing an absent product is
// a no-op.
func (c *Cart) RemoveLine(productID int64) {
	i := c.FindLineIndex(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}
