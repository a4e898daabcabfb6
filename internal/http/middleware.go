package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pater97/go-shop/internal/domain"
)

// MockAuthMiddleware simulates session authentication (replace with real
// session/JWT validation). It resolves the request's user and attaches it
// as an explicit UserContext value; handlers never read any other ambient
// user state.
func MockAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// In production: resolve the session and load the user.
		user := domain.UserContext{ID: 1, Email: "user@shop.test"}

		ctx := context.WithValue(r.Context(), "user", user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserFromContext(ctx context.Context) (domain.UserContext, bool) {
	user, ok := ctx.Value("user").(domain.UserContext)
	return user, ok && user.ID != 0
}
