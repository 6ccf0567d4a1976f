package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	keyLabelKey  contextKey = "api_key_label"
)

// RequestID assigns each request a unique id, stored in the context and
// echoed in the X-Request-ID header. Incoming ids are trusted if present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
		next.ServeHTTP(w, r)
	})
}

// GetRequestID returns the id assigned by RequestID, if any.
func GetRequestID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(requestIDKey).(string)
	return id, ok
}

func setKeyLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, keyLabelKey, label)
}

// GetKeyLabel returns the label of the API key that authenticated this
// request. Labels are positional ("key-1"), never the secret itself.
func GetKeyLabel(r *http.Request) (string, bool) {
	label, ok := r.Context().Value(keyLabelKey).(string)
	return label, ok
}
