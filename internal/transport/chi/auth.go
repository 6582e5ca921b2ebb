package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	bearerPrefix = "Bearer "
	apiKeyHeader = "X-API-Key"
	authRealm    = `Bearer realm="mscatalog"`
)

// Probes and scrapers call these without credentials.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware rejects requests without a configured API key, given either as
// "Authorization: Bearer <key>" or as X-API-Key. No keys configured disables auth.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, problem := requestToken(r)
			if problem == "" && !knownKey(keys, token) {
				problem = "invalid api key"
			}
			if problem != "" {
				w.Header().Set("WWW-Authenticate", authRealm)
				WriteError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, problem)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestToken extracts the presented key. Authorization wins over X-API-Key.
func requestToken(r *http.Request) (token, problem string) {
	if h := r.Header.Get("Authorization"); h != "" {
		if !strings.HasPrefix(h, bearerPrefix) {
			return "", "authorization header must use Bearer scheme"
		}
		return strings.TrimSpace(h[len(bearerPrefix):]), ""
	}
	if k := r.Header.Get(apiKeyHeader); k != "" {
		return k, ""
	}
	return "", "missing authorization header or X-API-Key"
}

// knownKey compares against every key so timing does not reveal which one matched.
func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, t)
	}
	return found == 1
}
