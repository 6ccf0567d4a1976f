package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ZoOtMcNoOt/gaitqueue/internal/api/response"
)

const keyPrefixLen = 8

type apiKey struct {
	label  string
	prefix string
	hash   []byte
}

// Auth validates bearer tokens against a static key set. Keys are hashed at
// construction so raw secrets are not kept in memory afterwards.
type Auth struct {
	keys []apiKey
}

// NewAuth hashes the configured API keys. Keys shorter than the prefix
// length are rejected because the prefix is what narrows hash comparisons.
func NewAuth(rawKeys []string) (*Auth, error) {
	keys := make([]apiKey, 0, len(rawKeys))
	for i, raw := range rawKeys {
		if len(raw) < keyPrefixLen {
			return nil, fmt.Errorf("api key %d is shorter than %d characters", i+1, keyPrefixLen)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash api key %d: %w", i+1, err)
		}
		keys = append(keys, apiKey{
			label:  fmt.Sprintf("key-%d", i+1),
			prefix: raw[:keyPrefixLen],
			hash:   hash,
		})
	}
	return &Auth{keys: keys}, nil
}

// Authenticate validates the Bearer token and stores the matching key's
// label in the request context for rate limiting and logging.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if len(rawKey) < keyPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key format", nil)
			return
		}

		// Compare only against keys sharing the prefix; bcrypt is too slow
		// to run against the whole set on every request.
		prefix := rawKey[:keyPrefixLen]
		for _, key := range a.keys {
			if key.prefix != prefix {
				continue
			}
			if bcrypt.CompareHashAndPassword(key.hash, []byte(rawKey)) == nil {
				r = r.WithContext(setKeyLabel(r.Context(), key.label))
				next.ServeHTTP(w, r)
				return
			}
		}

		response.Error(w, http.StatusUnauthorized,
			"INVALID_TOKEN", "Invalid API key", nil)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
