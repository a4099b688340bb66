package httpapi

import (
	"context"
	"net/http"

	"earplugs/internal/app/users"
	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

type identityKey struct{}

// requireRole authenticates the bearer token and checks the caller's role
// before calling next.
func (s *Server) requireRole(want models.UserRole, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := parseBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		id, err := s.users.Authorize(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !id.Role.Allows(want) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "requires " + string(want) + " role"})
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		ctx = logging.WithUserID(ctx, id.UserID)
		next(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) (users.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(users.Identity)
	return id, ok
}
