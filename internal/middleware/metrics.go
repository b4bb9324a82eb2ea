package middleware

import (
	"net/http"
)

// RequestRecorder counts served requests.
type RequestRecorder interface {
	ObserveHTTPRequest(method string, status int)
}

// Metrics middleware records method and status of every request
func Metrics(recorder RequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)
			recorder.ObserveHTTPRequest(r.Method, ww.statusCode)
		})
	}
}
