package middleware

import (
	"net/http"
	"strings"
)

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}, ", ")
	corsHeaders = strings.Join([]string{"Authorization", "Content-Type", TraceHeader}, ", ")
)

// CORS admits the comma separated origins in allowed; "*" or an empty list
// admits any origin. Preflight requests are answered here.
func CORS(allowed string) func(http.Handler) http.Handler {
	origins := map[string]bool{}
	allowAll := strings.TrimSpace(allowed) == ""
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			origins[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			switch {
			case allowAll:
				h.Set("Access-Control-Allow-Origin", "*")
			case origins[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Expose-Headers", TraceHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
