package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("bootstrapping m15 traffic settlement service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var publisher ports.DomainPublisher
	var closePublisher func() error
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, eventadapter.DefaultTopicByEvent())
		if pubErr != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", pubErr)
		}
		publisher = kafkaPublisher
		closePublisher = kafkaPublisher.Close
	} else {
		logger.Warn("no kafka brokers configured, domain events stay in memory")
		publisher = eventadapter.NewMemoryDomainPublisher()
		closePublisher = func() error { return nil }
	}

	repos := postgres.NewRepositories(pool)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:                cfg.ServiceID,
			PixelBaseURL:               cfg.PixelBaseURL,
			DedupeWindow:               cfg.DedupeWindow,
			VelocityWindow:             cfg.VelocityWindow,
			RateLimitWindow:            cfg.RateLimitWindow,
			RateLimitMaxRequests:       cfg.RateLimitMax,
			AttributionWindow:          cfg.AttributionWindow,
			CommissionPercent:          cfg.CommissionPercent,
			PlatformFeePercent:         cfg.PlatformFeePercent,
			FreezeAnomalyThreshold:     cfg.FreezeAnomalyThreshold,
			ReserveHoldDays:            cfg.ReserveHoldDays,
			DailyPayoutCapCents:        cfg.DailyPayoutCapCents,
			CreatorFlagFrozenThreshold: cfg.CreatorFlagFrozenThreshold,
			SweepBatchSize:             cfg.SweepBatchSize,
		},
		Visits:      repos.Visits,
		Conversions: repos.Conversions,
		Payouts:     repos.Payouts,
		Balances:    repos.Balances,
		Ledger:      repos.Ledger,
		Campaigns:   repos.Campaigns,
		Tx:          repos.Tx,
		Velocity:    cacheadapter.NewRedisVelocityStore(redisClient),
		Budget:      grpcadapter.NewBudgetLedgerClient(cfg.BudgetGRPCURL, cfg.ViewPayoutCents),
		Pricing:     grpcadapter.NewCpmPricingClient(cfg.PricingGRPCURL),
		Metrics:     grpcadapter.NewTrafficMetricsClient(cfg.MetricsGRPCURL),
		Geo:         grpcadapter.NewStaticGeoResolver(cfg.GeoDefaultCountry),
		Events:      publisher,
		Logger:      logger,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewSettlementInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		_ = closePublisher()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    svc,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		cleanupFn: func(ctx context.Context) {
			_ = closePublisher()
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker drives the two settlement sweeps on timers: eligible payout
// release and expired reserve release.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweepTicker := time.NewTicker(r.cfg.SweepInterval)
	defer sweepTicker.Stop()
	reserveTicker := time.NewTicker(r.cfg.ReserveSweepInterval)
	defer reserveTicker.Stop()

	r.logger.Info("settlement worker started",
		"sweep_interval", r.cfg.SweepInterval.String(),
		"reserve_sweep_interval", r.cfg.ReserveSweepInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r.cleanupFn(shutdownCtx)
			return nil
		case <-sweepTicker.C:
			result, err := r.service.ReleaseEligiblePayouts(ctx)
			if err != nil {
				r.logger.Error("payout sweep failed", "error", err.Error())
				continue
			}
			if result.Released > 0 || result.Frozen > 0 || result.Deferred > 0 || result.Skipped > 0 {
				r.logger.Info("payout sweep completed",
					"released", result.Released,
					"frozen", result.Frozen,
					"deferred", result.Deferred,
					"skipped", result.Skipped,
				)
			}
		case <-reserveTicker.C:
			released, err := r.service.ReleaseExpiredReserves(ctx)
			if err != nil {
				r.logger.Error("reserve sweep failed", "error", err.Error())
				continue
			}
			if released > 0 {
				r.logger.Info("reserve sweep completed", "released", released)
			}
		}
	}
}
