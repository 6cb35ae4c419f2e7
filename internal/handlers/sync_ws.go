package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/services"
)

var syncUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// SyncEvent is the payload pushed to sync clients.
type SyncEvent struct {
	Type        string                  `json:"type"` // "preferences", "stats", "onboarding_completed"
	Preferences *models.UserPreferences `json:"preferences,omitempty"`
	Stats       *models.JournalStats    `json:"stats,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
}

// SyncClientMessage represents messages coming from the client.
type SyncClientMessage struct {
	Type string `json:"type"` // "ping"
}

// SyncWebSocket streams preference and journal-statistics snapshots to the
// client as they arrive from the live subscriptions, plus a one-shot event
// when the user completes onboarding. Authentication uses the session token
// (Authorization: Bearer <token>, or ?token= for browser clients).
func SyncWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}
	userID, ok := requireAuthToken(token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	eng, release, err := registry.Acquire(userID)
	if err != nil {
		http.Error(w, "failed to start sync engine", http.StatusInternalServerError)
		return
	}
	defer release()

	conn, err := syncUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Buffered so subscription callbacks never block on a slow client; a
	// dropped event is fine because the next snapshot supersedes it.
	events := make(chan SyncEvent, 16)
	done := make(chan struct{})
	push := func(ev SyncEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	unsubPrefs := eng.SubscribePreferences(func(prefs *models.UserPreferences) {
		push(SyncEvent{Type: "preferences", Preferences: prefs, Timestamp: time.Now().UTC()})
		if eng.JustCompletedOnboarding() {
			push(SyncEvent{Type: "onboarding_completed", Timestamp: time.Now().UTC()})
			eng.AcknowledgeOnboarding()
		}
	})
	defer unsubPrefs()

	unsubStats := eng.SubscribeStats(func(stats models.JournalStats) {
		s := stats
		push(SyncEvent{Type: "stats", Stats: &s, Timestamp: time.Now().UTC()})
	})
	defer unsubStats()

	// Seed the client with the current state before any live updates.
	push(SyncEvent{Type: "preferences", Preferences: eng.Preferences(), Timestamp: time.Now().UTC()})
	stats := eng.Stats()
	push(SyncEvent{Type: "stats", Stats: &stats, Timestamp: time.Now().UTC()})

	go func() {
		for {
			select {
			case ev := <-events:
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg SyncClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		}
	}
}

// requireAuthToken validates a raw session token.
func requireAuthToken(token string) (string, bool) {
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		return "", false
	}
	return userID.String(), true
}
