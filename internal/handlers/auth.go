package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/aequanimitas-app/backend/internal/services"
)

type SessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// CreateAnonymousSession issues a session for a fresh anonymous user ID.
// Full sign-in lives in the auth service; from here on the engine only ever
// sees the opaque user identifier.
func CreateAnonymousSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID := uuid.New()
	token, err := services.CreateSession(userID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(SessionResponse{
			Success: false,
			Message: "Failed to create session",
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SessionResponse{
		Success: true,
		Token:   token,
		UserID:  userID.String(),
	})
}

// EndSession invalidates the caller's session token.
func EndSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(SessionResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	if err := services.InvalidateSession(token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(SessionResponse{
			Success: false,
			Message: "Failed to end session",
		})
		return
	}

	json.NewEncoder(w).Encode(SessionResponse{Success: true})
}
