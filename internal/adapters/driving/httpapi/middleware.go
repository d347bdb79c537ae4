package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/services"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

const bearerPrefix = "Bearer "

// bearerKey extracts and validates a provider key from an Authorization header.
// ok is false when the header is absent.
func bearerKey(header string) (key string, ok bool, err error) {
	if header == "" {
		return "", false, nil
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", true, errInvalidAuthHeader
	}
	key = strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if err := domain.ValidateAPIKey(key); err != nil {
		return "", true, err
	}
	return key, true, nil
}

// requireAPIKey rejects malformed credentials before the handler runs.
// A valid key is attached to the request context; a missing header falls
// back to the configured key.
func requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, present, err := bearerKey(r.Header.Get("Authorization"))
		if err != nil {
			logger.Zap().Warn("rejected credential",
				zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if present {
			r = r.WithContext(services.WithAPIKey(r.Context(), key))
		}
		next(w, r)
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests writes one debug line per request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Zap().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
