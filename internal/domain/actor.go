package domain

// Actor identifies the caller of an operation. IsAdmin is resolved once at
// the HTTP boundary from the edge-supplied role header and handed down;
// services never re-derive it.
type Actor struct {
	UserID  string
	IsAdmin bool
}
