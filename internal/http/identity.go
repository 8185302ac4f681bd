package http

import (
	"context"
	"net/http"
	"strings"

	"stationops/internal/core"
)

type identityKey struct{}

// Identity is who the gateway says is calling. The station deployment
// terminates auth upstream and forwards the result in headers.
type Identity struct {
	User string
	Role core.Role
}

// withIdentity reads X-Station-Role and X-Station-User. A missing role
// defaults to attendant; an unknown one is rejected outright.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			User: strings.TrimSpace(r.Header.Get("X-Station-User")),
			Role: core.RoleAttendant,
		}
		if raw := strings.TrimSpace(r.Header.Get("X-Station-Role")); raw != "" {
			role, ok := core.NormalizeRole(raw)
			if !ok {
				respondError(w, r, http.StatusForbidden, "UnknownRole", "unknown role: "+raw)
				return
			}
			id.Role = role
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{Role: core.RoleAttendant}
}
