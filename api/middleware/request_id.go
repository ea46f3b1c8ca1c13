package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// POS terminals send their own ids; anything outside this shape is replaced.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

func requestIDFor(r *http.Request) string {
	if incoming := r.Header.Get(requestIDHeader); requestIDPattern.MatchString(incoming) {
		return incoming
	}
	return uuid.NewString()
}

// RequestID echoes a usable X-Request-Id (or a fresh one) and tags the
// request's log context with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestIDFor(r)
			w.Header().Set(requestIDHeader, id)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
