package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/printa-cashdesk/internal/apierror"
	"github.com/georgemunganga/printa-cashdesk/internal/config"
	"github.com/georgemunganga/printa-cashdesk/internal/infra"
	"github.com/georgemunganga/printa-cashdesk/internal/middleware"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/auth"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/cashsession"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/store"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	middleware.SetupLogging(cfg.LogLevel, !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := infra.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()
	log.Info().Msg("connected to postgres")

	drafts := cashsession.NewMemoryDraftStore()
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		drafts = cashsession.NewRedisDraftStore(rdb, cfg.DraftTTL)
		log.Info().Dur("draft_ttl", cfg.DraftTTL).Msg("opening drafts kept in redis")
	} else {
		log.Warn().Msg("REDIS_URL not set, opening drafts kept in memory")
	}

	// ── Identity & Stores ───────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)

	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTTTL)

	storeService := store.NewService(store.NewPostgresRepository(db))

	// ── Cash sessions ───────────────────────────────────────
	sessionRepo := cashsession.NewPostgresRepository(db)
	var guard cashsession.OpenGuard
	if cfg.EnforceUniqueRegister {
		guard = cashsession.NewUniqueRegisterGuard(sessionRepo)
	}
	cashService := cashsession.NewService(
		cashsession.NewRegistry(sessionRepo, userService, storeService),
		auth.Identity{},
		drafts,
		cashsession.RedirectNavigator{},
		guard,
		cashsession.Options{
			POSRoute:       cfg.POSRoute,
			TerminalPrefix: cfg.TerminalPrefix,
			PriceTable:     cfg.DefaultPriceTable,
			Headquarters:   cashsession.StoreRef{ID: cfg.HeadquartersStoreID, Name: cfg.HeadquartersStoreName},
			Location:       cfg.Location(),
		},
	)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(auth.Middleware(authService))

	router.Get("/healthz", healthz(db))
	auth.NewHandler(authService).RegisterRoutes(router)
	user.NewHandler(userService).RegisterRoutes(router)
	store.NewHandler(storeService).RegisterRoutes(router)
	cashsession.NewHandler(cashService).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("cash desk API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			apierror.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		apierror.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
