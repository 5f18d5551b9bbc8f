package middleware

import (
	"net/http"
	"strings"
	"time"
)

// RequestTimer sets X-Response-Time to the handler's processing time. The
// header is set before the first write so that it reaches the client.
func RequestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timingWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		tw.stamp()
	})
}

type timingWriter struct {
	http.ResponseWriter
	start   time.Time
	stamped bool
}

func (tw *timingWriter) stamp() {
	if !tw.stamped {
		tw.stamped = true
		tw.Header().Set("X-Response-Time", time.Since(tw.start).String())
	}
}

func (tw *timingWriter) WriteHeader(code int) {
	tw.stamp()
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timingWriter) Write(b []byte) (int, error) {
	tw.stamp()
	return tw.ResponseWriter.Write(b)
}

// CORS handles Cross-Origin Resource Sharing for the browser widget. An
// origin list containing "*" allows every origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
