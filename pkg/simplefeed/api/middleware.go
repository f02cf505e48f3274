package api

import (
	"net/http"

	"github.com/go-chi/jwtauth"

	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/auth"
)

// TokenVerifier validates a bearer token and returns its claims.
// *auth.TokenService satisfies it.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// IdentityMiddleware attaches a simplefeed.Identity to every request.
// It never rejects: a missing, malformed or expired token just leaves
// the request unauthenticated, and downstream operations decide what
// that means.
func IdentityMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id simplefeed.Identity

			if token := jwtauth.TokenFromHeader(r); token != "" && verifier != nil {
				if claims, err := verifier.Verify(token); err == nil {
					id = simplefeed.Identity{Authenticated: true, UserID: claims.UserID}
				}
			}

			next.ServeHTTP(w, r.WithContext(simplefeed.WithIdentity(r.Context(), id)))
		})
	}
}

// corsMiddleware sets the headers browser clients need to call the
// API and the websocket channel from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET, POST, PUT, PATCH, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
