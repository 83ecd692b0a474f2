package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/config"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/httpclient"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/server"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/logger"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/metrics"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passevents"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
	_ "github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore/redispass"
	_ "github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore/sqlpass"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/resolver"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/upstream/n2yo"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "passcache",
		Component: "passcache",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting passcache",
		"addr", cfg.Addr,
		"version", Version,
		"store", cfg.StoreDriver,
		"freshness_window", cfg.FreshnessWindow.String(),
		"dedupe_inflight", cfg.DedupeInflight)

	mp := metrics.Init(metrics.Config{
		Enabled: cfg.MetricsEnabled,
		Addr:    cfg.MetricsAddr,
		Path:    cfg.MetricsPath,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	observability.Init(mp.Registerer(), true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := passstore.New(ctx, cfg.StoreDriver, cfg, appLog.With("component", "store"))
	if err != nil {
		appLog.Error("store setup failed", "driver", cfg.StoreDriver, "registered", passstore.Drivers(), "err", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLog.Warn("store close", "err", err)
		}
	}()
	cached := passstore.NewObjectCache(store, cfg.ObjectCacheSize)

	if cfg.Upstream.APIKey == "" {
		appLog.Warn("N2YO_API_KEY is empty; upstream calls will fail and only cached data is served")
	}
	upstream := n2yo.New(appLog.With("component", "n2yo"),
		httpclient.NewOutbound(cfg.Upstream.Timeout),
		cfg.Upstream.BaseURL, cfg.Upstream.APIKey,
		n2yo.WithTimeout(cfg.Upstream.Timeout),
		n2yo.WithRatePerMinute(cfg.Upstream.RatePerMin),
	)

	wb := resolver.NewWriteBack(appLog.With("component", "writeback"), cached, resolver.WriteBackConfig{
		Workers:   cfg.WriteBackWorkers,
		Queue:     cfg.WriteBackQueue,
		Retries:   cfg.WriteBackRetries,
		OpTimeout: cfg.CacheOpTimeout,
	})
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := wb.Close(drainCtx); err != nil {
			appLog.Warn("write-back drain incomplete", "err", err)
		}
	}()

	opts := []resolver.Option{
		resolver.WithFreshnessWindow(cfg.FreshnessWindow),
		resolver.WithWriteBack(wb),
		resolver.WithInflightDedupe(cfg.DedupeInflight),
	}

	if cfg.Events.Enabled {
		pub, err := passevents.NewPublisher(appLog.With("component", "passevents"),
			cfg.Events.BrokerList(), cfg.Events.Topic, cfg.Events.Queue, cfg.H3Res)
		if err != nil {
			appLog.Warn("resolution events disabled", "err", err)
		} else {
			opts = append(opts, resolver.WithEvents(pub))
			defer func() {
				if err := pub.Close(); err != nil {
					appLog.Warn("passevents close", "err", err)
				}
			}()
		}
	}

	orch := resolver.New(appLog.With("component", "resolver"), cached, upstream, opts...)

	go func() {
		if err := mp.Serve(ctx, appLog); err != nil {
			appLog.Error("metrics server exited", "err", err)
		}
	}()

	handler := server.NewHandler(appLog, server.Deps{
		Resolver:     orch,
		Ready:        cached,
		ReadyTimeout: cfg.CacheOpTimeout,
		Metrics:      mp.Handler(),
		MetricsPath:  cfg.MetricsPath,
	})
	if err := server.Run(ctx, cfg.Addr, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
