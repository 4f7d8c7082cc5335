package domain

import "time"

// CheckoutSnapshot is the frozen copy of a cart taken at initiate time. The
// confirm step charges against this snapshot, never against a fresh cart
// read, so concurrent cart edits between initiate and confirm cannot change
// what the user pays for.
type CheckoutSnapshot struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	Total     int64      `json:"total"`
	Currency  string     `json:"currency"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired checks whether the snapshot has passed its expiry time.
func (s *CheckoutSnapshot) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// OrderItems converts the snapshot lines into order items.
func (s *CheckoutSnapshot) OrderItems() []OrderItem {
	items := make([]OrderItem, 0, len(s.Lines))
	for _, line := range s.Lines {
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}
	return items
}
