package httpx

import (
	"context"
	"net/http"

	"github.com/viniruiz/dashgo/internal/store"
)

type userIDKey struct{}

// APIKeyAuth authenticates via the X-API-Key header: the presented key is
// SHA-256 hashed and matched against stored hashes, resolving to a user id
// injected into the request context. Missing and invalid keys both get the
// same 401 so responses carry no key-enumeration signal.
func APIKeyAuth(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			userID, err := st.UserForAPIKey(r.Context(), key)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id from the context, or "".
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey{}).(string)
	return v
}
