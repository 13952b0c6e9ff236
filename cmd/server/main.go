package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livechat/config"
	"livechat/content"
	"livechat/handlers"
	"livechat/repository"
	"livechat/services"
	"livechat/ws"
)

// loggingMiddleware adds request logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s %s in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Sec-WebSocket-Protocol, Sec-WebSocket-Extensions, Sec-WebSocket-Key, Sec-WebSocket-Version, Upgrade, Connection")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	// --- config/env ---
	cfg := config.Load()

	log.Printf("Starting livechat server on port %s", cfg.Port)

	// --- repos: Postgres when configured, in-memory otherwise ---
	var (
		userRepo       repository.UserRepository
		roomRepo       repository.RoomRepository
		membershipRepo repository.MembershipRepository
		messageRepo    repository.MessageRepository
	)
	if cfg.HasDatabase() {
		db, err := config.ConnectDB(cfg)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		log.Println("Connected to PostgreSQL & migrated")
		userRepo = repository.NewGormUserRepo(db)
		roomRepo = repository.NewGormRoomRepo(db)
		membershipRepo = repository.NewGormMembershipRepo(db)
		messageRepo = repository.NewGormMessageRepo(db)
	} else {
		log.Println("No DB_HOST set, using in-memory storage")
		userRepo = repository.NewInMemoryUserRepo()
		roomRepo = repository.NewInMemoryRoomRepo()
		membershipRepo = repository.NewInMemoryMembershipRepo()
		messageRepo = repository.NewInMemoryMessageRepo()
	}

	// --- change feed hub ---
	hub := ws.NewHub()
	go hub.Run()

	// --- services ---
	authSvc := services.NewAuthService(userRepo, &cfg)
	roomSvc := services.NewRoomService(roomRepo, userRepo, membershipRepo, cfg.MaxRoomNameLen)
	msgSvc := services.NewMessageService(messageRepo, roomRepo, userRepo, membershipRepo, hub, &cfg)

	// --- content backend ---
	contentClient := content.NewClient(cfg.ContentEndpoint)
	if contentClient.Configured() {
		log.Println("Content backend configured, serving articles")
	} else {
		log.Println("No CONTENT_GRAPHQL_ENDPOINT set, article routes degrade to fallback")
	}

	// --- handlers ---
	authH := handlers.NewAuthHandler(authSvc)
	roomH := handlers.NewRoomHandler(hub, roomSvc, msgSvc, authSvc)
	msgH := handlers.NewMessageHandler(msgSvc, authSvc)
	contentH := handlers.NewContentHandler(contentClient)

	writeLimiter := handlers.NewIPRateLimiter(cfg.WriteRatePerMin, cfg.WriteRateBurst, 5*time.Minute)

	// --- mux and routes ---
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	// API routes
	mux.HandleFunc("/api/register", writeLimiter.Limit(authH.Register))
	mux.HandleFunc("/api/login", writeLimiter.Limit(authH.Login))
	mux.HandleFunc("/api/rooms", roomH.WithAuth(roomH.Rooms))
	mux.HandleFunc("/api/rooms/create", roomH.WithAuth(writeLimiter.Limit(roomH.Create)))
	mux.HandleFunc("/api/rooms/request", roomH.WithAuth(writeLimiter.Limit(roomH.RequestAccess)))
	mux.HandleFunc("/api/memberships", roomH.WithAuth(roomH.Memberships))
	mux.HandleFunc("/api/members/resolve", roomH.WithAuth(writeLimiter.Limit(roomH.Resolve)))
	mux.HandleFunc("/api/members/pending", roomH.WithAuth(roomH.Pending))
	mux.HandleFunc("/api/messages", msgH.WithAuth(msgH.ListMessages))
	mux.HandleFunc("/api/messages/get", msgH.WithAuth(msgH.GetMessage))
	mux.HandleFunc("/api/messages/send", msgH.WithAuth(writeLimiter.Limit(msgH.SendMessage)))
	mux.HandleFunc("/api/posts", contentH.Posts)
	mux.HandleFunc("/api/posts/get", contentH.Post)
	mux.HandleFunc("/ws", roomH.WS) // WS ?roomId=<id>&token=<token>

	// Apply middleware
	handler := withCORS(loggingMiddleware(mux))

	// --- server setup ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- graceful shutdown ---
	go func() {
		log.Printf("Livechat server running on http://localhost:%s", cfg.Port)
		log.Printf("Feed endpoint: ws://localhost:%s/ws?roomId=<id>&token=<token>", cfg.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
