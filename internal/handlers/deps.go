package handlers

import (
	"net/http"
	"strings"

	"github.com/aequanimitas-app/backend/internal/services"
	"github.com/aequanimitas-app/backend/internal/store"
)

var (
	registry *services.Registry
	remote   store.RemoteStore
	fallback store.FallbackCache
)

// Init wires the handler package to its collaborators. Called once from main.
func Init(r *services.Registry, rs store.RemoteStore, fc store.FallbackCache) {
	registry = r
	remote = rs
	fallback = fc
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth validates the session and returns the authenticated user's ID.
// Returns ("", false) if not authenticated.
func requireAuth(r *http.Request) (string, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return "", false
	}
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		return "", false
	}
	return userID.String(), true
}
