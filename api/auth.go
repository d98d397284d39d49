/*
auth.go - Bearer-token authentication middleware

PURPOSE:
  Authentication is delegated to an external identity provider; this
  service only verifies the HS256 bearer token it issued and extracts a
  Principal (the provider's subject plus profile claims). Authorization
  - which organization the caller belongs to, what role they hold - is
  resolved against the users table by the handlers that need it.

DEV MODE:
  With no JWT secret configured the middleware runs open: the caller's
  identity comes from the X-User-Id header (default "dev-user"). This
  mirrors how the frontend is developed against a local server.

SEE ALSO:
  - handlers.go: SyncUser / Me, where principals meet the users table
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated caller as the identity provider sees
// them. ExternalID keys the users table.
type Principal struct {
	ExternalID string
	Name       string
	Email      string
	Source     string // "jwt" or "dev"
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type profileClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func authenticateJWT(token, secret string) (Principal, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &profileClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("subject claim required")
	}
	return Principal{
		ExternalID: claims.Subject,
		Name:       claims.Name,
		Email:      claims.Email,
		Source:     "jwt",
	}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// authMiddleware verifies bearer tokens and attaches the Principal. The
// health endpoint stays open either way.
func authMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			if secret == "" {
				id := strings.TrimSpace(r.Header.Get("X-User-Id"))
				if id == "" {
					id = "dev-user"
				}
				ctx := withPrincipal(r.Context(), Principal{ExternalID: id, Source: "dev"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			token, ok := bearerToken(authz)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			}
			principal, err := authenticateJWT(token, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}
