package mcpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// authenticator guards the HTTP MCP endpoint. Bearer mode wins when a
// bearer token is configured; otherwise API-key mode is used, generating
// a key at startup when none was provided.
type authenticator struct {
	bearer string
	apiKey string
}

func (s *Server) authenticator() authenticator {
	a := authenticator{bearer: s.cfg.BearerToken, apiKey: s.cfg.APIKey}
	if a.bearer == "" && a.apiKey == "" {
		a.apiKey = uuid.NewString()
		s.log.Info("generated API key for this session", "api_key", a.apiKey)
	}
	return a
}

func (a authenticator) mode() string {
	if a.bearer != "" {
		return "bearer"
	}
	return "api-key"
}

func equalSecret(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (a authenticator) allow(r *http.Request) bool {
	if a.bearer != "" {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		return ok && equalSecret(token, a.bearer)
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return equalSecret(key, a.apiKey)
	}
	return equalSecret(r.URL.Query().Get("api_key"), a.apiKey)
}

func (a authenticator) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.allow(r) {
			if a.bearer != "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
