package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/olyamironova/order-matcher/internal/adapter/cache"
	"github.com/olyamironova/order-matcher/internal/adapter/kafka"
	"github.com/olyamironova/order-matcher/internal/adapter/pg"
	grpcapi "github.com/olyamironova/order-matcher/internal/api/grpc"
	httpapi "github.com/olyamironova/order-matcher/internal/api/http"
	"github.com/olyamironova/order-matcher/internal/config"
	"github.com/olyamironova/order-matcher/internal/core"
	"github.com/olyamironova/order-matcher/internal/logger"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instruments, err := cfg.TradedInstruments()
	if err != nil {
		zapLogger.Fatal("invalid instruments", zap.Error(err))
	}
	router, err := core.NewRouter(instruments)
	if err != nil {
		zapLogger.Fatal("failed to create router", zap.Error(err))
	}

	quoteHub := httpapi.NewQuoteHub()
	opts := []core.DispatcherOption{
		core.WithQuoteStore(quoteHub),
		core.WithSinkTimeout(cfg.Dispatcher.SinkTimeout),
	}

	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			zapLogger.Warn("redis unreachable, quotes will be retried per update", zap.Error(err))
		} else {
			// books start empty; drop quotes left over from a previous run
			for _, in := range instruments {
				if err := redisCache.Invalidate(ctx, in); err != nil {
					zapLogger.Warn("failed to invalidate quote", zap.String("instrument", string(in)), zap.Error(err))
				}
			}
		}
		opts = append(opts, core.WithQuoteStore(redisCache))
	}

	if cfg.Postgres.Enabled {
		archive, err := pg.NewPgArchive(ctx, cfg.Postgres.DSN)
		if err != nil {
			zapLogger.Fatal("failed to connect to Postgres", zap.Error(err))
		}
		defer archive.Close()
		if err := archive.EnsureSchema(ctx); err != nil {
			zapLogger.Fatal("failed to prepare archive schema", zap.Error(err))
		}
		opts = append(opts, core.WithArchive(archive))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		opts = append(opts, core.WithPublisher(producer))
	}

	dispatcher := core.NewDispatcher(zapLogger, cfg.Dispatcher.Buffer, opts...)
	go dispatcher.Run(context.Background())
	defer dispatcher.Close()

	engine := core.NewEngine(router, dispatcher, zapLogger)

	errc := make(chan error, 2)

	var httpSrv *http.Server
	if cfg.HTTP.Addr != "" {
		server := httpapi.NewHTTPServer(engine, quoteHub, zapLogger, cfg.RateLimit.Interval, cfg.HTTP.DedupTTL)
		httpSrv = &http.Server{Addr: cfg.HTTP.Addr, Handler: server.Handler()}
		go func() {
			zapLogger.Info("starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	var grpcSrv *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			zapLogger.Fatal("listen failed", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
		}
		server := grpcapi.NewGRPCServer(engine, zapLogger)
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(server.UnaryLogger()))
		grpcapi.RegisterOrderMatcherServer(grpcSrv, server)
		go func() {
			zapLogger.Info("starting gRPC server", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	zapLogger.Info("order matcher started", zap.Strings("instruments", cfg.Instruments))

	select {
	case <-ctx.Done():
		zapLogger.Info("shutting down")
	case err := <-errc:
		zapLogger.Error("server failed, shutting down", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("HTTP shutdown", zap.Error(err))
		}
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
}
