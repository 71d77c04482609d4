// Package middleware provides HTTP middleware for the intake API.
package middleware

import "net/http"

// allowedMethods lists the verbs the intake API serves. The surface is
// read-and-create only; there is nothing to PUT or DELETE.
const allowedMethods = "GET, POST, OPTIONS"

// CORS returns middleware that handles cross-origin requests from the
// intake frontend.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				// Credentials only for explicit origins. Combining
				// Allow-Credentials with a wildcard-echoed origin enables CSRF.
				if explicitlyAllowed(allowedOrigins, origin) {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowedOrigins []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func explicitlyAllowed(allowedOrigins []string, origin string) bool {
	for _, o := range allowedOrigins {
		if o != "*" && o == origin {
			return true
		}
	}
	return false
}
