package middleware

import (
	"net/http"
	"time"

	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rr, r)

		duration := time.Since(start)

		if rr.statusCode >= http.StatusInternalServerError {
			logger.Warn("%s %s %d %dB %s", r.Method, r.RequestURI, rr.statusCode, rr.bytes, duration)
			return
		}
		logger.Info("%s %s %d %dB %s", r.Method, r.RequestURI, rr.statusCode, rr.bytes, duration)
	})
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}
