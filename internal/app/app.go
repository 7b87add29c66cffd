package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/dalilfazara/dalil/config"
	"github.com/dalilfazara/dalil/internal/database"
	"github.com/dalilfazara/dalil/internal/domain"
	httpHandler "github.com/dalilfazara/dalil/internal/http"
	"github.com/dalilfazara/dalil/internal/http/middleware"
	"github.com/dalilfazara/dalil/internal/migrations"
	"github.com/dalilfazara/dalil/internal/repository"
	"github.com/dalilfazara/dalil/internal/service"
	"github.com/dalilfazara/dalil/pkg/blobstore"
	"github.com/dalilfazara/dalil/pkg/blobstore/s3"
	"github.com/dalilfazara/dalil/pkg/blobstore/supabase"
	"github.com/dalilfazara/dalil/pkg/cache"
	"github.com/dalilfazara/dalil/pkg/datastore"
	"github.com/dalilfazara/dalil/pkg/datastore/postgres"
	"github.com/dalilfazara/dalil/pkg/datastore/rest"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/ratelimiter"
	"github.com/dalilfazara/dalil/pkg/tracing"
	"github.com/dalilfazara/dalil/pkg/visitor"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed by the CLI and tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetDatastore() datastore.Store
	GetDirectoryService() *service.DirectoryService
	GetDashboardService() *service.DashboardService
	GetWorkerRepository() domain.WorkerRepository

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitStorage() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config    *config.Config
	logger    logger.Logger
	telemetry *tracing.Telemetry

	// Data and storage backends
	db            *sql.DB
	conn          *database.Conn
	store         datastore.Store
	blobs         blobstore.Store
	cache         cache.Cache
	valkey        valkey.Client
	snapshots     domain.SnapshotStore
	skipMigration bool

	// Repositories
	workerRepo   domain.WorkerRepository
	trackingRepo domain.TrackingRepository

	// Services
	directoryService   *service.DirectoryService
	trackingService    *service.TrackingService
	dashboardService   *service.DashboardService
	dashboardScheduler *service.DashboardScheduler
	limiter            *ratelimiter.RateLimiter

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithDB uses db for the postgres backend instead of opening a connection
func WithDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithDatastore replaces the configured data backend
func WithDatastore(store datastore.Store) AppOption {
	return func(a *App) {
		a.store = store
	}
}

// WithBlobStore replaces the configured blob storage backend
func WithBlobStore(blobs blobstore.Store) AppOption {
	return func(a *App) {
		a.blobs = blobs
	}
}

// WithSnapshotStore replaces the configured dashboard snapshot cache
func WithSnapshotStore(snapshots domain.SnapshotStore) AppOption {
	return func(a *App) {
		a.snapshots = snapshots
	}
}

// WithoutMigrations leaves the schema untouched on InitDB
func WithoutMigrations() AppOption {
	return func(a *App) {
		a.skipMigration = true
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus exporters
func (a *App) InitTracing() error {
	telemetry, err := tracing.Init(&a.config.Tracing, a.config.Environment, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.telemetry = telemetry
	return nil
}

// InitDB selects the data backend. The postgres backend creates the
// database when missing and applies pending migrations.
func (a *App) InitDB() error {
	if a.store != nil {
		return nil
	}

	switch a.config.Backend.Kind {
	case config.BackendREST:
		a.logger.WithField("url", a.config.Backend.SupabaseURL).Info("Using REST data backend")
		a.store = rest.New(a.config.Backend.SupabaseURL, a.config.Backend.SupabaseKey, a.config.Backend.Timeout)
		return nil
	case config.BackendPostgres:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, a.config.Backend.Kind)
	}

	if a.db == nil {
		if err := a.openPostgres(); err != nil {
			return err
		}
	}

	if !a.skipMigration {
		applied, err := migrations.NewMigrator(a.db, a.logger).Up(context.Background())
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.logger.WithField("applied", applied).Info("Schema migrations completed")
	}

	a.store = postgres.New(a.db)
	return nil
}

func (a *App) openPostgres() error {
	dbCfg := &a.config.Database
	password := dbCfg.Password
	maskedPassword := ""
	if len(password) > 0 {
		maskedPassword = fmt.Sprintf("%c...%c", password[0], password[len(password)-1])
	}
	a.logger.Info(fmt.Sprintf("Connecting to database %s:%d, user %s, sslmode %s, password: %s, dbname: %s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.SSLMode, maskedPassword, dbCfg.DBName))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.EnsureApplicationDatabase(ctx, dbCfg); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	conn, err := database.Open(ctx, dbCfg, database.Options{
		Environment: a.config.Environment,
		Traced:      a.config.Tracing.Enabled,
	})
	if err != nil {
		return err
	}
	if a.config.Tracing.Enabled {
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	a.conn = conn
	a.db = conn.DB
	return nil
}

// InitStorage sets up blob storage and the caches
func (a *App) InitStorage() error {
	if a.blobs == nil {
		switch a.config.Storage.Kind {
		case config.StorageSupabase:
			a.blobs = supabase.New(
				a.config.Backend.SupabaseURL,
				a.config.Backend.SupabaseKey,
				a.config.Storage.CacheControlSec,
				a.config.Backend.Timeout,
			)
		case config.StorageS3:
			store, err := s3.New(s3.Config{
				Region:        a.config.Storage.S3Region,
				Endpoint:      a.config.Storage.S3Endpoint,
				AccessKey:     a.config.Storage.S3AccessKey,
				SecretKey:     a.config.Storage.S3SecretKey,
				ForcePath:     a.config.Storage.S3ForcePath,
				PublicBaseURL: a.config.Storage.PublicBaseURL,
				CacheControl:  "max-age=" + strconv.Itoa(a.config.Storage.CacheControlSec),
			})
			if err != nil {
				return err
			}
			a.blobs = store
		default:
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, a.config.Storage.Kind)
		}
	}

	if a.cache == nil {
		a.cache = cache.NewInMemoryCache(time.Minute)
	}

	if a.snapshots == nil {
		switch a.config.Cache.Kind {
		case config.CacheValkey:
			client, err := repository.NewValkeyClient(a.config.Cache.ValkeyAddress, a.config.Cache.ValkeyPassword, a.config.Cache.ValkeyDB)
			if err != nil {
				return err
			}
			a.valkey = client
			a.snapshots = repository.NewValkeySnapshotStore(client, a.config.Cache.SnapshotTTL)
		default:
			a.snapshots = repository.NewMemorySnapshotStore(a.cache, a.config.Cache.SnapshotTTL)
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"storage": a.config.Storage.Kind,
		"cache":   a.config.Cache.Kind,
	}).Info("Storage initialized")
	return nil
}

// InitServices builds repositories, services and the rate limiter
func (a *App) InitServices() error {
	a.workerRepo = repository.NewWorkerRepository(a.store, a.logger)
	a.trackingRepo = repository.NewTrackingRepository(a.store)

	a.directoryService = service.NewDirectoryService(a.workerRepo, a.blobs, a.cache, service.DirectoryConfig{
		ImagesBucket:  a.config.Storage.ImagesBucket,
		MaxImageBytes: a.config.Storage.MaxImageBytes,
		WorkersTTL:    a.config.Cache.WorkersTTL,
	}, a.logger)

	a.trackingService = service.NewTrackingService(a.trackingRepo, a.workerRepo, a.logger)

	a.dashboardService = service.NewDashboardService(a.trackingRepo, a.workerRepo, a.snapshots, service.DashboardConfig{
		Location:       a.config.Dashboard.Location(),
		Locale:         a.config.Dashboard.Locale,
		StaleAfter:     a.config.Dashboard.StaleAfter,
		TopContacts:    a.config.Dashboard.TopContacts,
		RecentContacts: a.config.Dashboard.RecentContacts,
	}, a.logger)

	a.dashboardScheduler = service.NewDashboardScheduler(a.dashboardService, a.config.Dashboard.RefreshSchedule, a.logger)

	a.limiter = ratelimiter.NewRateLimiter(ratelimiter.WithSweepInterval(5 * time.Minute))
	if n := a.config.Tracking.ContactClicksPerMinute; n > 0 {
		a.limiter.SetPolicy(ratelimiter.NamespaceContact, n, time.Minute)
	}
	if n := a.config.Tracking.RegistrationsPerHour; n > 0 {
		a.limiter.SetPolicy(ratelimiter.NamespaceRegister, n, time.Hour)
	}

	return nil
}

// healthCheck counts workers to prove the data backend answers
func (a *App) healthCheck(ctx context.Context) error {
	_, err := a.store.Count(ctx, repository.TableWorkers)
	return err
}

// InitHandlers registers every route on the mux
func (a *App) InitHandlers() error {
	trackingHandler := httpHandler.NewTrackingHandler(
		a.trackingService,
		a.limiter,
		visitor.Options{Secure: a.config.Tracking.CookieSecure},
		a.logger,
	)
	workerHandler := httpHandler.NewWorkerHandler(a.directoryService, a.limiter, a.config.Storage.MaxImageBytes, a.logger)
	dashboardHandler := httpHandler.NewDashboardHandler(a.dashboardService, a.logger)
	rootHandler := httpHandler.NewRootHandler(
		a.config.Server.PagesDir,
		a.config.Version,
		a.config.Dashboard.Locale,
		a.healthCheck,
		a.logger,
	)

	trackingHandler.RegisterRoutes(a.mux)
	workerHandler.RegisterRoutes(a.mux)
	dashboardHandler.RegisterRoutes(a.mux)
	rootHandler.RegisterRoutes(a.mux)

	return nil
}

// Handler wraps the mux with the middleware chain
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.gracefulShutdownMiddleware(handler)
	handler = middleware.RecoverMiddleware(a.logger)(handler)

	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
		a.logger.Info("OpenCensus tracing middleware enabled")
	}

	return middleware.CORSMiddleware(a.config.CORS.AllowedOrigins)(handler)
}

// Start runs the dashboard scheduler and serves HTTP until shutdown
func (a *App) Start() error {
	if a.dashboardScheduler != nil {
		if err := a.dashboardScheduler.Start(); err != nil {
			return err
		}
	}

	handler := a.Handler()

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info(fmt.Sprintf("Server starting on %s", addr))

	a.serverMu.Lock()
	if a.serverStarted != nil {
		select {
		case <-a.serverStarted:
		default:
			close(a.serverStarted)
		}
	}
	a.serverStarted = make(chan struct{})

	a.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	var err error
	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		err = a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	} else {
		err = a.server.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources(ctx)
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	serverShutdownDone := make(chan error, 1)
	go func() {
		a.logger.WithField("timeout", shutdownTimeout).Info("Starting HTTP server shutdown")
		serverShutdownDone <- server.Shutdown(shutdownCtx)
	}()

	requestsDone := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(requestsDone)
	}()

	var shutdownErr error
	select {
	case err := <-serverShutdownDone:
		shutdownErr = err
		a.logger.Info("HTTP server shutdown completed")
	case <-shutdownCtx.Done():
		a.logger.Warn("Shutdown timeout reached")
		shutdownErr = fmt.Errorf("shutdown timeout exceeded")
	}

	if shutdownErr == nil {
		select {
		case <-requestsDone:
		case <-time.After(2 * time.Second):
			if active := a.getActiveRequestCount(); active > 0 {
				a.logger.WithField("active_requests", active).Warn("Some requests still active, proceeding with shutdown")
			}
		}
	}

	if cleanupErr := a.cleanupResources(ctx); cleanupErr != nil {
		a.logger.WithField("error", cleanupErr.Error()).Error("Error during resource cleanup")
		if shutdownErr == nil {
			shutdownErr = cleanupErr
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

// cleanupResources stops background work and closes connections
func (a *App) cleanupResources(ctx context.Context) error {
	a.logger.Info("Cleaning up resources...")

	if a.dashboardScheduler != nil {
		a.dashboardScheduler.Stop()
	}
	if a.directoryService != nil {
		a.directoryService.Close()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.cache != nil {
		a.cache.Stop()
	}
	if a.valkey != nil {
		a.valkey.Close()
	}

	var cleanupErr error
	if a.conn != nil {
		a.logger.Info("Closing database connection")
		if err := a.conn.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			cleanupErr = err
		}
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.WithField("error", err.Error()).Warn("Failed to flush telemetry")
	}

	a.logger.Info("Resource cleanup completed")
	return cleanupErr
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created. Returns false if
// ctx expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	for {
		a.serverMu.RLock()
		started := a.serverStarted
		created := a.server != nil
		a.serverMu.RUnlock()

		if created {
			return true
		}

		select {
		case <-started:
			if a.IsServerCreated() {
				return true
			}
			// the channel was replaced by Start, wait on the new one
			time.Sleep(5 * time.Millisecond)
		case <-ctx.Done():
			return false
		}
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting Dalil application")

	if err := a.InitTracing(); err != nil {
		return err
	}
	if err := a.InitDB(); err != nil {
		return err
	}
	if err := a.InitStorage(); err != nil {
		return err
	}
	if err := a.InitServices(); err != nil {
		return err
	}
	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the database connection of the postgres backend
func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetDatastore() datastore.Store {
	return a.store
}

func (a *App) GetDirectoryService() *service.DirectoryService {
	return a.directoryService
}

func (a *App) GetDashboardService() *service.DashboardService {
	return a.dashboardService
}

func (a *App) GetWorkerRepository() domain.WorkerRepository {
	return a.workerRepo
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout).Info("Shutdown timeout configured")
}

// GetShutdownContext returns the context cancelled when shutdown begins
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware counts in-flight requests and turns new ones
// away once shutdown has begun
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
