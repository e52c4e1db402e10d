package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-migrator/internal/api"
	"catalog-migrator/internal/config"
	"catalog-migrator/internal/domain"
	"catalog-migrator/internal/logger"
	"catalog-migrator/internal/store"
	"catalog-migrator/internal/transfer"
	"catalog-migrator/internal/woocommerce"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultAppName = "catalog-migrator"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Error initializing logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zlog = zlog.With(zap.String("service", defaultAppName))
	zlog.Info("Configuration loaded",
		zap.String("app_env", cfg.AppEnv),
		zap.String("run_mode", cfg.RunMode),
		zap.String("db_driver", cfg.Source.Driver),
	)

	// --- Database Connection ---
	db, err := sql.Open(cfg.Source.Driver, cfg.Source.DSN())
	if err != nil {
		zlog.Fatal("Failed to initialize database connection", zap.Error(err))
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		_ = db.Close()
		zlog.Fatal("Failed to ping database", zap.Error(err))
	}
	zlog.Info("Database connection established")

	dbStore := store.NewOpencartStore(db, cfg.Source.Driver, cfg.Source.TablePrefix, cfg.Source.LanguageID)
	wc := woocommerce.NewClient(
		cfg.WooCommerce.APIBaseURL(),
		cfg.WooCommerce.ConsumerKey,
		cfg.WooCommerce.ConsumerSecret,
		cfg.WooCommerce.RequestTimeout,
		zlog,
	)
	orchestrator := transfer.New(dbStore, wc, cfg.Source.ImageBaseURL, cfg.Transfer.Concurrency, zlog)

	if cfg.RunMode == config.RunModeServe {
		serve(cfg, zlog, orchestrator, dbStore)
		return
	}
	code := runOnce(cfg, zlog, orchestrator, dbStore)
	_ = zlog.Sync()
	os.Exit(code)
}

// runOnce performs a single transfer using the TRANSFER_* settings and
// returns the process exit code.
func runOnce(cfg *config.Config, zlog *zap.Logger, orchestrator *transfer.Orchestrator, dbStore *store.OpencartStore) int {
	defer func() {
		if err := dbStore.Close(); err != nil {
			zlog.Warn("Error closing database connection", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orchestrator.Run(ctx, transfer.Request{
		Selector: domain.Selector{CategoryID: cfg.Transfer.CategoryID, Limit: cfg.Transfer.Limit},
		Type:     domain.ProductType(cfg.Transfer.Mode),
	})
	if err != nil {
		zlog.Error("Transfer aborted", zap.Error(err))
		return 1
	}

	s := report.Summary()
	fields := []zap.Field{
		zap.String("run_id", report.RunID),
		zap.Int("products", s.Products),
		zap.Int("products_failed", s.ProductsFailed),
		zap.Int("variations_failed", s.VariationsFailed),
	}
	if report.Failed() {
		zlog.Warn("Transfer completed with failures", fields...)
	} else {
		zlog.Info("Transfer completed", fields...)
	}
	return 0
}

func serve(cfg *config.Config, zlog *zap.Logger, orchestrator *transfer.Orchestrator, dbStore *store.OpencartStore) {
	// Runs started over HTTP are cancelled when the service shuts down.
	baseCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	httpAPIHandler := api.NewHTTPHandler(baseCtx, orchestrator, dbStore, zlog)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, zlog)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		zlog.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		zlog.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(zlog)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		zlog.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GrpcServer.Port), zap.Error(err))
	}

	go func() {
		zlog.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			zlog.Fatal("gRPC server Serve error", zap.Error(err))
		}
		zlog.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(zlog, httpServer, grpcServer, httpAPIHandler, cancelRuns, dbStore, shutdownComplete)

	<-shutdownComplete
	zlog.Info("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, zlog *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	zlog.Debug("Base HTTP middleware registered")
}

func setupGRPCServer(zlog *zap.Logger) *grpc.Server {
	s := grpc.NewServer()

	healthServer := health.NewServer()
	healthServer.SetServingStatus(defaultAppName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	zlog.Debug("gRPC health check service registered")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	zlog.Debug("gRPC reflection service registered")

	return s
}

func waitForShutdown(
	zlog *zap.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	httpAPIHandler *api.HTTPHandler,
	cancelRuns context.CancelFunc,
	dbStore *store.OpencartStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	zlog.Info("Received signal, starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		zlog.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		zlog.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		zlog.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	// In-flight transfers see a cancelled context; products not yet started
	// are recorded as failed.
	cancelRuns()
	httpAPIHandler.Wait()

	if err := dbStore.Close(); err != nil {
		zlog.Warn("Error closing database connection", zap.Error(err))
	}

	zlog.Info("Graceful shutdown sequence completed")
}
