package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shelfwise/cataloger/internal/classifier"
	"github.com/shelfwise/cataloger/internal/config"
	"github.com/shelfwise/cataloger/internal/events"
	"github.com/shelfwise/cataloger/internal/extractor"
	"github.com/shelfwise/cataloger/internal/handlers"
	"github.com/shelfwise/cataloger/internal/jobs"
	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/pkg/metrics"
	"github.com/shelfwise/cataloger/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of the cataloger API server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

// NewPgxPool builds the pgx pool used by the river queue. Sized for worker
// fetches plus LISTEN/NOTIFY connections.
func NewPgxPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
		cfg.Database.Hostname,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	dbPool, err := NewPgxPool(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	eventProducer := events.NewEventProducer(&events.StdoutWriter{})
	defer func() {
		_ = eventProducer.Close()
	}()

	queueClient, err := jobs.NewClient(
		ctx,
		dbPool,
		s.store,
		extractor.NewFileExtractor(),
		classifier.NewHeuristicClassifier(),
		classifier.NewStaticTrainer(),
		eventProducer,
		s.cfg,
	)
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}

	if err := queueClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue client: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := queueClient.Stop(stopCtx); err != nil {
			zap.S().Named("api_server").Warnw("failed to stop queue client", "error", err)
		}
	}()

	zap.S().Named("api_server").Info("job queue initialized")

	h := handlers.New(
		service.NewDocumentService(s.store, queueClient, s.cfg.Pipeline.MinTextLength),
		service.NewJobService(s.store, queueClient),
		service.NewCatalogService(s.store),
		service.NewTrainingService(s.store, queueClient, s.cfg.Pipeline.MinReviewedItems),
	)
	h.RegisterRoutes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
