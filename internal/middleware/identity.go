package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/smartsave/internal/auth"
	"github.com/hongminglow/smartsave/internal/http/respond"
)

var (
	// ErrUnauthenticated means identity is enforced and the request carried no valid token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the token's subject is not the user the request acts for.
	ErrForbidden = errors.New("token does not match user")
)

type identityKey struct{}

type identity struct {
	subject string
}

// Identity verifies bearer tokens. A request without an Authorization header
// passes through so that checksum-authenticated and public routes still work;
// handlers call Authorize for the user they act on. A nil tokens manager
// disables the check entirely.
func Identity(tokens *auth.TokenManager, next http.Handler) http.Handler {
	if tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity{}
		if header := r.Header.Get("Authorization"); header != "" {
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}
			subject, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			id.subject = subject
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

// Authorize checks that the caller may act for userID.
func Authorize(ctx context.Context, userID string) error {
	id, enforced := ctx.Value(identityKey{}).(identity)
	switch {
	case !enforced:
		return nil
	case id.subject == "":
		return ErrUnauthenticated
	case id.subject != userID:
		return ErrForbidden
	}
	return nil
}

// Subject returns the verified token subject, if any.
func Subject(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey{}).(identity)
	return id.subject, ok && id.subject != ""
}
