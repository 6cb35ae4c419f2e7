package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/services"
	"github.com/aequanimitas-app/backend/internal/session"
)

type JournalStatsResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Stats   models.JournalStats `json:"stats"`
}

type BriefingResponse struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message,omitempty"`
	Greeting string              `json:"greeting,omitempty"`
	Quote    *models.Quote       `json:"quote,omitempty"`
	Stats    models.JournalStats `json:"stats"`
}

// GetJournalStats returns the derived statistics for the authenticated
// user's journal.
func GetJournalStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(JournalStatsResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	stats, err := currentStats(r.Context(), userID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(JournalStatsResponse{
			Success: false,
			Message: "Failed to compute journal stats",
		})
		return
	}

	json.NewEncoder(w).Encode(JournalStatsResponse{
		Success: true,
		Stats:   stats,
	})
}

// GetDailyBriefing returns the personalized greeting, today's quote and the
// current statistics in one response.
func GetDailyBriefing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(BriefingResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	resp, err := buildBriefing(r.Context(), userID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(BriefingResponse{
			Success: false,
			Message: "Failed to build daily briefing",
		})
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// buildBriefing assembles the briefing from the user's running engine when
// one exists, so the greeting, quote and stats all come from the session's
// live state and clock. Without an engine it falls back to one-shot reads.
func buildBriefing(ctx context.Context, userID string) (BriefingResponse, error) {
	if eng := registry.Lookup(userID); eng != nil {
		resp := BriefingResponse{
			Success:  true,
			Greeting: eng.Greeting(),
			Stats:    eng.Stats(),
		}
		if quote, ok := eng.DailyQuote(services.DefaultQuoteCatalog); ok {
			resp.Quote = &quote
		}
		return resp, nil
	}

	prefs, err := currentPreferences(ctx, userID)
	if err != nil {
		return BriefingResponse{}, err
	}
	stats, err := currentStats(ctx, userID)
	if err != nil {
		return BriefingResponse{}, err
	}
	resp := BriefingResponse{
		Success:  true,
		Greeting: services.Greeting(prefs, stats, time.Now()),
		Stats:    stats,
	}
	sess := session.NewContext(userID)
	if quote, ok := services.NewDailyQuotePicker(fallback).DailyQuote(sess, prefs, services.DefaultQuoteCatalog); ok {
		resp.Quote = &quote
	}
	return resp, nil
}

// currentStats prefers the running engine's live statistics, falling back to
// a one-shot read and recompute.
func currentStats(ctx context.Context, userID string) (models.JournalStats, error) {
	if eng := registry.Lookup(userID); eng != nil {
		return eng.Stats(), nil
	}

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entries, err := remote.ReadJournal(readCtx, userID)
	if err != nil {
		return models.JournalStats{CommonMoods: []string{}}, err
	}
	return services.RecomputeStats(entries, time.Now()), nil
}
