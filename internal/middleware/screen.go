package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ScreenIDContextKey is the key for storing the screen ID in context
const ScreenIDContextKey ContextKey = "screenID"

// ScreenIDHeader carries the screen ID on every call made by a rendered page
const ScreenIDHeader = "X-Screen-ID"

// ScreenMiddleware ties requests to a screen. Every page render starts a new
// screen, so two tabs or a reload never share state.
type ScreenMiddleware struct {
	header string
}

// NewScreenMiddleware creates a new screen middleware reading the ID from header
func NewScreenMiddleware(header string) *ScreenMiddleware {
	if header == "" {
		header = ScreenIDHeader
	}
	return &ScreenMiddleware{header: header}
}

// Issue starts a new screen for the request
func (m *ScreenMiddleware) Issue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ScreenIDContextKey, uuid.New())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Attach resolves the screen ID sent by the page and rejects requests without one
func (m *ScreenMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		screenID, err := uuid.Parse(r.Header.Get(m.header))
		if err != nil || screenID == uuid.Nil {
			http.Error(w, "Missing or invalid screen ID", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), ScreenIDContextKey, screenID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetScreenIDFromContext retrieves the screen ID from request context
func GetScreenIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	screenID, ok := ctx.Value(ScreenIDContextKey).(uuid.UUID)
	return screenID, ok
}
