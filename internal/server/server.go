package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/contacerta/apiserver/config"
	"github.com/contacerta/apiserver/internal/db"
	"github.com/contacerta/apiserver/internal/events"
	"github.com/contacerta/apiserver/internal/handlers"
	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/mq"
	"github.com/contacerta/apiserver/internal/reconcile"
	"github.com/contacerta/apiserver/internal/services"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server owns the process-wide handles (database pool, identity client,
// broker) and the HTTP server. Handles are built once at startup and
// closed on shutdown.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     *slog.Logger

	sweeper        *reconcile.Sweeper
	sweepInterval  time.Duration
	stopSweeper    context.CancelFunc
	sweeperStopped chan struct{}
}

// New constructs a Server with its dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.Default()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	queue := mq.New(backend)

	idp := identity.NewGoTrueClient(cfg.Supabase)
	userRepo := store.NewUserRepository(dbConn)
	publisher := events.NewPublisher(queue, logger)

	reconciler := services.NewReconciler(userRepo)
	accountService := services.NewAccountService(userRepo, idp, publisher)
	authService := services.NewAuthService(idp, reconciler, cfg.FrontendURL)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, accountService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv := &Server{
		httpServer:    httpServer,
		router:        router,
		db:            dbConn,
		queue:         queue,
		logger:        logger,
		sweepInterval: cfg.ReconcileInterval,
	}
	if cfg.ReconcileInterval > 0 {
		srv.sweeper = reconcile.NewSweeper(idp, userRepo, logger)
	}
	return srv, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server and, when configured, the periodic drift
// sweeper.
func (s *Server) Start() error {
	if s.sweeper != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopSweeper = cancel
		s.sweeperStopped = make(chan struct{})
		go s.runSweeper(ctx)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully and closes the shared handles.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopSweeper != nil {
		s.stopSweeper()
		<-s.sweeperStopped
	}

	err := s.httpServer.Shutdown(ctx)

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func (s *Server) runSweeper(ctx context.Context) {
	defer close(s.sweeperStopped)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.sweeper.Run(ctx)
			if err != nil {
				s.logger.Warn("reconcile sweep failed", "error", err)
				continue
			}
			s.logger.Info("reconcile sweep finished",
				"provider_users", report.ProviderUsers,
				"local_users", report.LocalUsers,
				"backfilled", report.Backfilled,
				"stranded_local", len(report.StrandedLocal),
			)
		}
	}
}

func newBackend(ctx context.Context, cfg config.MQConfig) (mq.Backend, error) {
	switch cfg.Backend {
	case "rabbitmq":
		return mq.NewRabbitMQBackend(cfg.RabbitMQ)
	case "pubsub":
		return mq.NewPubSubBackend(ctx, cfg.PubSub)
	default:
		return mq.NewNoopBackend(), nil
	}
}
