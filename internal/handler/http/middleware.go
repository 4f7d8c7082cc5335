package http

import (
	"net/http"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/pkg/middleware"
)

// roleAdmin is the role value the edge proxy sets for administrators.
const roleAdmin = "admin"

// maxBodyBytes caps request bodies at 1MB to prevent DoS via large payloads.
const maxBodyBytes = 1 << 20

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// actorFromRequest builds the Actor from the identity the edge proxy put in
// the request context. This is the only place IsAdmin is derived.
func actorFromRequest(r *http.Request) domain.Actor {
	return domain.Actor{
		UserID:  middleware.UserIDFromContext(r.Context()),
		IsAdmin: middleware.RoleFromContext(r.Context()) == roleAdmin,
	}
}
