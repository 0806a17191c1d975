package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request ID on responses.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// WithLogging assigns each request an ID and logs it on completion. Panics
// become a 500.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if err := recover(); err != nil {
				log.Printf("[%s] Panic recovered: %v", id, err)
				// Too late to change the status once the response has started.
				if !rec.wroteHeader {
					writeJSON(rec, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
				}
			}
			log.Printf("[%s] %s %s action=%q status=%d duration=%s",
				id, r.Method, r.URL.Path, r.URL.Query().Get("action"), rec.status, time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	})
}
