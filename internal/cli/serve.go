package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	macae "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/api"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent/mock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/event/redis"
)

const serviceName = "macae"

func newServeCommand(global *globalFlags) *cobra.Command {
	var mockDelay time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, the gRPC health check and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(viper.New(), global.config)
			if err != nil {
				return err
			}
			logger, err := newLogger(global.debug, zapcore.InfoLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config, logger, mockDelay)
		},
	}
	cmd.Flags().DurationVar(&mockDelay, "mock-delay", 500*time.Millisecond, "simulated latency of the built-in agents")
	return cmd
}

func serve(ctx context.Context, config *macae.Config, logger *zap.SugaredLogger, mockDelay time.Duration) error {
	sink, closeJournal, err := macae.OpenJournal(ctx, config.Journal)
	if err != nil {
		return err
	}
	defer closeJournal()

	options := []macae.Option{macae.WithConfig(config), macae.WithLogger(logger)}
	if sink != nil {
		options = append(options, macae.WithJournalSink(sink))
	}
	if config.Tracing.Enabled {
		options = append(options, macae.WithTracing(serviceName, Version, config.Tracing.Output))
	}
	srv, err := macae.New(options...)
	if err != nil {
		return err
	}
	if err := mock.RegisterAll(srv.Registry(), mockDelay); err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if config.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		stopRelay := redis.New(client, config.Redis.Prefix, logger.Named("redis")).Start(ctx, srv.Events())
		defer stopRelay()
		logger.Infow("redis relay started", "addr", config.Redis.Addr)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	listener, err := net.Listen("tcp", config.HTTP.HealthAddr)
	if err != nil {
		return err
	}
	errs := make(chan error, 2)
	go func() {
		errs <- grpcServer.Serve(listener)
	}()

	handler := api.NewEcho(api.NewServer(srv.Store(), srv.Approvals(), srv.Coordinator(), srv.Events(), logger.Named("api")), serviceName)
	server := &http.Server{
		Addr:              config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		errs <- server.ListenAndServe()
	}()
	logger.Infow("server started", "addr", config.HTTP.Addr, "health_addr", config.HTTP.HealthAddr, "agents", srv.Registry().IDs())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Infow("shutdown signal received")
	case serveErr = <-errs:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	}

	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("engine shutdown failed", "error", err)
	}
	logger.Infow("server stopped")
	return serveErr
}
