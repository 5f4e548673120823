package api

import (
	"crypto/subtle"
	"net/http"
)

// Realm is sent in the basic-auth challenge.
const Realm = "Knowledge Pad Login"

// BasicAuth guards next with a single username and password. An empty
// password disables the check.
func BasicAuth(username, password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
