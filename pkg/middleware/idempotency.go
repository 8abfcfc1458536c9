package middleware

import (
	"bytes"
	"net/http"

	"travel-booking/pkg/idempotency"

	"go.uber.org/zap"
)

// captureWriter buffers the response body so it can be replayed later
type captureWriter struct {
	http.ResponseWriter
	statusCode int
	buf        bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.statusCode = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Idempotency replays the cached response for a repeated POST carrying the
// same Idempotency-Key, so a client retry never reaches the handler twice.
func Idempotency(guard *idempotency.Guard, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				key = r.Header.Get("X-Idempotency-Key")
			}
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := guard.Check(key); ok {
				logger.Info("Returning cached response for idempotency key",
					zap.String("key", key),
					zap.Int("status", cached.StatusCode))
				w.Header().Set("Content-Type", cached.ContentType)
				w.WriteHeader(cached.StatusCode)
				w.Write(cached.Body)
				return
			}

			cw := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(cw, r)

			guard.Record(key, idempotency.CachedResponse{
				StatusCode:  cw.statusCode,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.buf.Bytes(),
			})
		})
	}
}
