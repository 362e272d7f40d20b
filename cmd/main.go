package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopchat/chat-service/config"
	"github.com/loopchat/chat-service/internal/postgres"
	"github.com/loopchat/chat-service/internal/service"
	grpcx "github.com/loopchat/chat-service/internal/transport/grpc"
	httpx "github.com/loopchat/chat-service/internal/transport/http"
	"github.com/loopchat/chat-service/internal/transport/ws"
	"github.com/loopchat/chat-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- redis (optional, cross-instance fanout) ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
	}

	// --- repos ---
	chatRepo := postgres.NewChatRepository(db.Pool)
	partRepo := postgres.NewParticipantRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)
	markerRepo := postgres.NewReadMarkerRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	listRepo := postgres.NewChatListRepository(db.Pool)

	// --- hub & fanout ---
	hub := ws.NewHub()
	fanout := ws.NewFanout(hub, rdb, cfg.Redis.Channel)

	// --- services ---
	chatSvc := service.NewChatService(chatRepo, partRepo, msgRepo, fanout)
	listSvc := service.NewChatListService(listRepo, userRepo)
	readSvc := service.NewReadService(markerRepo, partRepo)

	// --- WS server ---
	wsServer := ws.NewServer(hub, chatSvc, cfg.Auth.JWTSecret)

	// --- HTTP ---
	handler := httpx.NewHandler(listSvc, chatSvc, readSvc)
	router := httpx.NewRouter(handler, wsServer, cfg.Auth.JWTSecret)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- gRPC health ---
	grpcServer, healthSrv := grpcx.New()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// --- run ---
	errCh := make(chan error, 3)

	go func() {
		if err := fanout.Run(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	grpcServer.GracefulStop()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
