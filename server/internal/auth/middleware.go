package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey struct{}

// UserHeader carries the operator name recorded with stored calculations.
const UserHeader = "X-User"

// APIKey returns HTTP middleware that enforces API key authentication.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests are allowed.
//   - Otherwise the value of header is compared to key in constant time.
//   - A missing or incorrect key gets 401 with a JSON error body.
//
// Safe methods (GET, HEAD, OPTIONS) pass through when readOnlyOpen is set, so
// dashboards can read results without a key.
func APIKey(mode, header, key string, readOnlyOpen bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode != "apikey" || key == "" || (readOnlyOpen && safeMethod(r.Method)) {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(header)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `APIKey header="`+header+`"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// User is middleware that stores the trimmed X-User header in the request
// context.
func User(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := strings.TrimSpace(r.Header.Get(UserHeader)); u != "" {
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the operator name stored by User, or "".
func UserFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
