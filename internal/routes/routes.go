package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/aequanimitas-app/backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Session routes (opaque user identifier; full auth lives elsewhere)
	r.Post("/api/session", handlers.CreateAnonymousSession)
	r.Delete("/api/session", handlers.EndSession)

	// Preference routes (reset rewrites, it never deletes)
	r.Get("/api/preferences", handlers.GetPreferences)
	r.Put("/api/preferences", handlers.SavePreferences)
	r.Delete("/api/preferences", handlers.ResetPreferences)

	// Journal analytics routes (journal entries themselves are written by
	// the journaling feature; this service only derives from them)
	r.Get("/api/journal/stats", handlers.GetJournalStats)
	r.Get("/api/briefing", handlers.GetDailyBriefing)

	// WebSocket endpoint for live preference/stats synchronization
	r.Get("/ws/sync", handlers.SyncWebSocket)
}
