package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/services"
	"github.com/aequanimitas-app/backend/internal/store"
)

type PreferencesResponse struct {
	Success     bool                    `json:"success"`
	Message     string                  `json:"message,omitempty"`
	Preferences *models.UserPreferences `json:"preferences"`
}

// GetPreferences returns the authenticated user's preference record, or null
// when onboarding has never been completed.
func GetPreferences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	prefs, err := currentPreferences(r.Context(), userID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Failed to load preferences",
		})
		return
	}

	json.NewEncoder(w).Encode(PreferencesResponse{
		Success:     true,
		Preferences: prefs,
	})
}

// SavePreferences merge-writes the posted record. A write that lands in the
// local fallback still succeeds; the response says so.
func SavePreferences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	var prefs models.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := savePreferences(ctx, userID, prefs)
	message := "Preferences saved"
	if errors.Is(err, services.ErrSavedLocally) {
		log.Printf("preferences for user %s saved to fallback: %v", userID, err)
		message = "Preferences saved locally; sync pending"
	} else if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Failed to save preferences",
		})
		return
	}

	json.NewEncoder(w).Encode(PreferencesResponse{
		Success:     true,
		Message:     message,
		Preferences: &prefs,
	})
}

// ResetPreferences rewrites the record to its cleared-default state. The
// document is not deleted.
func ResetPreferences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cleared := models.DefaultPreferences()
	err := savePreferences(ctx, userID, cleared)
	if err != nil && !errors.Is(err, services.ErrSavedLocally) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(PreferencesResponse{
			Success: false,
			Message: "Failed to reset preferences",
		})
		return
	}
	if err != nil {
		log.Printf("preference reset for user %s saved to fallback: %v", userID, err)
	}

	json.NewEncoder(w).Encode(PreferencesResponse{
		Success:     true,
		Message:     "Preferences reset",
		Preferences: &cleared,
	})
}

// savePreferences routes the write through the user's running engine when
// one exists, so connected clients observe the optimistic update too.
func savePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	if eng := registry.Lookup(userID); eng != nil {
		return eng.SavePreferences(ctx, prefs)
	}
	return services.NewPreferenceStore(remote, fallback).Save(ctx, userID, prefs)
}

// currentPreferences prefers the running engine's merged view, then the
// remote record, then the local fallback.
func currentPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	if eng := registry.Lookup(userID); eng != nil {
		return eng.Preferences(), nil
	}

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	prefs, err := remote.ReadPreferences(readCtx, userID)
	if err == nil {
		return prefs, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if cached, ok := fallback.ReadPreferences(userID); ok {
		log.Printf("serving fallback preferences for user %s: %v", userID, err)
		return cached, nil
	}
	return nil, err
}
