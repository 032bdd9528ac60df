package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/config"
	"github.com/piyushdan-dataslush/bms-analytics/internal/analyzer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/capture"
	grpcSvc "github.com/piyushdan-dataslush/bms-analytics/internal/delivery/grpc"
	httpDelivery "github.com/piyushdan-dataslush/bms-analytics/internal/delivery/http"
	"github.com/piyushdan-dataslush/bms-analytics/internal/delivery/kafka/consumer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/delivery/kafka/producer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/infra/postgres"
	"github.com/piyushdan-dataslush/bms-analytics/internal/infra/redis"
	repo "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/internal/schedule"
	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
	"github.com/piyushdan-dataslush/bms-analytics/internal/sink"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	pkgKafka "github.com/piyushdan-dataslush/bms-analytics/pkg/kafka"
	pkgLog "github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:      cfg.Log.Level,
		Mode:       cfg.Log.Mode,
		Encoding:   cfg.Log.Encoding,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		l.Fatalf(ctx, "Invalid civil offset: %v", err)
	}

	redisCli, err := redis.Connect(ctx, cfg.Redis, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(context.Background(), redisCli, l)

	pgPool, err := postgres.Connect(ctx, cfg.Postgres, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Postgres: %v", err)
	}
	defer pgPool.Close()

	showRepo := repo.NewRedisShowRepository(redisCli, cfg.Scheduler.ShowTTL, l)
	jobRepo := repo.NewRedisJobRepository(redisCli, l)

	// Initialize Kafka producer
	kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RetryMax:     cfg.Kafka.ProducerRetryMax,
		RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
	}, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
	}
	prod := producer.NewProducer(kafkaSyncProd, l)
	defer prod.Close()

	// Initialize Kafka consumer
	kafkaConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.ConsumerGroupID,
	}, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
	}

	// Domain components
	fs := afero.NewOsFs()
	clk := clock.Real()
	fetcher := schedule.NewHTTPFetcher(schedule.HTTPFetcherConfig{
		BaseURL:        cfg.Fetcher.BaseURL,
		Timeout:        cfg.Fetcher.Timeout,
		RequestsPerSec: cfg.Fetcher.RequestsPerSec,
		UserAgent:      cfg.Capture.UserAgent,
	}, l)
	capturer := capture.NewChromeCapturer(capture.Config{
		ChromePath:         cfg.Capture.ChromePath,
		UserAgent:          cfg.Capture.UserAgent,
		InterstitialButton: cfg.Capture.InterstitialButton,
		NavigationTimeout:  cfg.Capture.NavigationTimeout,
		InterstitialWait:   cfg.Capture.InterstitialWait,
		RenderTimeout:      cfg.Capture.RenderTimeout,
		SettleDelay:        cfg.Capture.SettleDelay,
		ViewportWidth:      cfg.Capture.ViewportWidth,
		ViewportHeight:     cfg.Capture.ViewportHeight,
		CapturesPerSec:     cfg.Capture.CapturesPerSec,
	}, l)
	seatAnalyzer := analyzer.New(analyzer.DefaultThresholds())
	pgSink := sink.NewPostgresSink(pgPool, fs, clk, l)

	scheduleCfg := service.ScheduleConfig{
		Location:   loc,
		LeadOffset: cfg.Scheduler.LeadOffset,
		LinkBase:   cfg.Capture.LinkBase,
	}

	// Initialize services
	schedSvc := service.NewCampaignScheduler(fetcher, cfg.Regions, showRepo, jobRepo, clk,
		service.CampaignSchedulerConfig{
			Schedule:          scheduleCfg,
			DedupeTTL:         cfg.Scheduler.DedupeTTL,
			RegionConcurrency: cfg.Scheduler.RegionConcurrency,
		}, l)
	dispSvc := service.NewCaptureDispatcher(showRepo, capturer, seatAnalyzer, pgSink, fs, clk,
		service.CaptureDispatcherConfig{
			TempDir:     cfg.Capture.TempDir,
			ArtifactDir: cfg.Capture.ArtifactDir,
			StaleAfter:  cfg.Capture.StaleAfter,
		}, l)
	batchSvc := service.NewBatchService(fetcher, cfg.Regions, capturer, seatAnalyzer, pgSink, fs, clk,
		service.BatchConfig{
			Schedule:     scheduleCfg,
			DefaultLimit: cfg.Batch.DefaultLimit,
			Concurrency:  cfg.Batch.Concurrency,
			TempDir:      cfg.Capture.TempDir,
			SpoolDir:     cfg.Batch.SpoolDir,
		}, l)
	triggerSvc := service.NewTriggerService(cfg.Regions, jobRepo, clk, service.TriggerConfig{
		DefaultCity:  cfg.Batch.DefaultCity,
		DefaultLimit: cfg.Batch.DefaultLimit,
		Location:     loc,
	}, l)
	showSvc := service.NewShowService(showRepo, jobRepo, l)
	jobDisp := service.NewJobDispatcher(jobRepo, prod, clk, l, service.JobDispatcherConfig{
		PollInterval: cfg.Scheduler.PollInterval,
		BatchSize:    cfg.Scheduler.PollBatch,
		Lease:        cfg.Scheduler.JobLease,
	})

	if err := jobDisp.Start(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start job dispatcher: %v", err)
	}

	// Job consumer
	cons := consumer.NewConsumer(kafkaConsGr, schedSvc, dispSvc, batchSvc, l)
	if err := cons.Start(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start consumer: %v", err)
	}

	// gRPC health server
	healthSvc := grpcSvc.NewHealthService(jobDisp, func(ctx context.Context) error {
		return redisCli.Ping(ctx).Err()
	}, l)
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	gRpcSrv := grpc.NewServer()
	healthSvc.Register(gRpcSrv)
	go healthSvc.Watch(ctx, 10*time.Second)

	go func() {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		if err := gRpcSrv.Serve(lnr); err != nil {
			l.Fatalf(ctx, "Failed to serve gRPC: %v", err)
		}
	}()

	// http server
	handler := httpDelivery.NewHTTPHandler(schedSvc, batchSvc, triggerSvc, showSvc, jobDisp, l)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(handler, cfg.JWT, l),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalf(ctx, "Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info(ctx, "Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		l.Errorf(ctx, "HTTP server shutdown: %v", err)
	}

	if err := jobDisp.Stop(); err != nil {
		l.Errorf(ctx, "Job dispatcher stop: %v", err)
	}

	cancel()
	if err := cons.Close(); err != nil {
		l.Errorf(ctx, "Consumer close: %v", err)
	}

	healthSvc.Shutdown()
	gRpcSrv.GracefulStop()

	l.Info(context.Background(), "Server exited")
}
