package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/minimall/api/internal/core/domain"
)

// Identity arrives from the upstream identity provider as trusted
// headers; this service never re-validates credentials.
const (
	headerMemberID   = "X-Member-ID"
	headerMemberRole = "X-Member-Role"

	roleAdmin = "ADMIN"
)

type contextKey struct{ name string }

var memberContextKey = &contextKey{"member"}

// WithMember extracts the caller identity into the request context.
// Requests without a parsable member id are rejected.
func WithMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(headerMemberID), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid member identity")
			return
		}
		member := domain.MemberPayload{
			ID:    id,
			Admin: r.Header.Get(headerMemberRole) == roleAdmin,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), memberContextKey, member)))
	})
}

// RequireAdmin rejects non-admin callers. Must run after WithMember.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !memberFrom(r.Context()).Admin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func memberFrom(ctx context.Context) domain.MemberPayload {
	member, _ := ctx.Value(memberContextKey).(domain.MemberPayload)
	return member
}
