package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/schemeflow/schemeflow/backend-go/internal/art"
	"github.com/schemeflow/schemeflow/backend-go/internal/auth"
	"github.com/schemeflow/schemeflow/backend-go/internal/category"
	"github.com/schemeflow/schemeflow/backend-go/internal/collab"
	"github.com/schemeflow/schemeflow/backend-go/internal/config"
	"github.com/schemeflow/schemeflow/backend-go/internal/db"
	mw "github.com/schemeflow/schemeflow/backend-go/internal/middleware"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
	"github.com/schemeflow/schemeflow/backend-go/internal/schemes"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", "err", err)
		os.Exit(1)
	}

	authService := auth.NewService(store, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	schemeService := schemes.NewService(store)
	schemeHandler := schemes.NewHandler(schemeService)

	categoryHandler := category.NewHandler(category.NewService(store))
	artHandler := art.NewHandler(cfg.ArtDir, store)

	// Loader and saver run in the hub goroutine, hence background contexts.
	loadScheme := func(schemeID string) (*scheme.Scheme, error) {
		return schemeService.GetScheme(context.Background(), schemeID)
	}
	saveScheme := func(schemeID string, data []byte) error {
		return schemeService.SaveScheme(context.Background(), schemeID, data)
	}

	hub := collab.NewHub(loadScheme, saveScheme)
	go hub.Run()

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Stored art files are public; upload and listing require auth.
	r.PathPrefix("/art/").Handler(artHandler.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.Middleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	api.HandleFunc("/schemes", schemeHandler.List).Methods("GET")
	api.HandleFunc("/schemes", schemeHandler.Create).Methods("POST")
	api.HandleFunc("/schemes/tags", schemeHandler.Tags).Methods("GET")
	api.HandleFunc("/schemes/{schemeId}", schemeHandler.Get).Methods("GET")
	api.HandleFunc("/schemes/{schemeId}", schemeHandler.Update).Methods("PUT")
	api.HandleFunc("/schemes/{schemeId}", schemeHandler.Delete).Methods("DELETE")

	api.HandleFunc("/categories", categoryHandler.List).Methods("GET")
	api.HandleFunc("/categories", categoryHandler.Create).Methods("POST")
	api.HandleFunc("/categories/{categoryId}", categoryHandler.Update).Methods("PUT")
	api.HandleFunc("/categories/{categoryId}", categoryHandler.Delete).Methods("DELETE")

	api.HandleFunc("/art", artHandler.List).Methods("GET")
	api.HandleFunc("/art", artHandler.Upload).Methods("POST")
	api.HandleFunc("/art/{artId}", artHandler.Delete).Methods("DELETE")

	r.HandleFunc("/ws/scheme/{schemeId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, schemeService, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every dirty scheme is flushed.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, schemeSvc *schemes.Service, origins string) {
	schemeID := mux.Vars(r)["schemeId"]

	// Browsers cannot set headers on websocket requests, so the token rides
	// in a query param.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := schemeSvc.CheckAccess(r.Context(), schemeID, userID); err != nil {
		http.Error(w, "no access to scheme", http.StatusForbidden)
		return
	}

	user, err := authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "err", err)
		return
	}

	client := collab.NewClient(hub, conn, userID, user.DisplayName, schemeID, uuid.New().String())
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns strips schemes from the configured origins; websocket.Accept
// matches on host patterns.
func originPatterns(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
