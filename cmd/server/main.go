package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/aequanimitas-app/backend/internal/config"
	"github.com/aequanimitas-app/backend/internal/database"
	"github.com/aequanimitas-app/backend/internal/handlers"
	"github.com/aequanimitas-app/backend/internal/middleware"
	"github.com/aequanimitas-app/backend/internal/routes"
	"github.com/aequanimitas-app/backend/internal/services"
	"github.com/aequanimitas-app/backend/internal/session"
	"github.com/aequanimitas-app/backend/internal/store"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to Redis (fallback cache, sessions, rate limiting)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (authoritative record store; change streams need a
	// replica set or Atlas)
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Wire the engine
	remote := store.NewMongoStore(database.DB)
	fallbackCache := store.NewRedisFallback(database.RedisClient, cfg.AppInstanceID)
	registry := services.NewRegistry(remote, fallbackCache, session.SystemClock{})
	handlers.Init(registry, remote, fallbackCache)
	log.Printf("✅ Sync engine ready (instance %s)", cfg.AppInstanceID)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Println("📋 Registered routes:")
	log.Println("  GET    /health")
	log.Println("  POST   /api/session")
	log.Println("  DELETE /api/session")
	log.Println("  GET    /api/preferences")
	log.Println("  PUT    /api/preferences")
	log.Println("  DELETE /api/preferences")
	log.Println("  GET    /api/journal/stats")
	log.Println("  GET    /api/briefing")
	log.Println("  GET    /ws/sync")

	log.Printf("🚀 Aequanimitas backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
