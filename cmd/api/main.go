package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dextract-fi/swap-gateway/internal/cache"
	"github.com/dextract-fi/swap-gateway/internal/config"
	"github.com/dextract-fi/swap-gateway/internal/favorites"
	"github.com/dextract-fi/swap-gateway/internal/history"
	"github.com/dextract-fi/swap-gateway/internal/insights"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/rpc"
	"github.com/dextract-fi/swap-gateway/internal/server"
	"github.com/dextract-fi/swap-gateway/internal/tokendir"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main initializes all dependencies and starts the HTTP gateway with
// graceful shutdown
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs the token/price cache, favorites, and recent swaps.
	// The gateway still serves fallback data without it, so a failed
	// ping downgrades to the in-memory cache instead of exiting.
	var store cache.Store
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, using in-memory cache")
		store = cache.NewMemoryStore()
	} else {
		s, err := cache.NewRedisStore(rclient, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to create redis cache")
		}
		store = s
	}

	favStore, err := favorites.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create favorites store")
	}

	histStore, err := newHistoryStore(cfg, rclient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create history store")
	}

	jupClient := jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterTokenURL, cfg.JupiterPriceURL, cfg.JupiterAPIKey)

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	directory := tokendir.NewDirectory(jupClient, rpcClient, store, logger)

	// Insights agent is optional; it needs both an API key and a
	// reachable ClickHouse.
	var agent *insights.Agent
	insightsBase := insights.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Logger:             logger,
	}
	if cfg.OpenRouterAPIKey != "" && cfg.ClickHouseAddr != "" {
		a, err := insights.NewAgent(ctx, insightsBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize insights agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close()
			}()
		}
	}

	h := &server.Handlers{
		Directory:          directory,
		Favorites:          favStore,
		History:            histStore,
		Jupiter:            jupClient,
		Insights:           agent,
		InsightsBaseConfig: insightsBase,
		DevMode:            cfg.DevMode,
		Logger:             logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("gateway starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("gateway failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}

// newHistoryStore wires optional ClickHouse persistence behind the
// Redis recent-swaps list.
func newHistoryStore(cfg *config.Config, rclient *redis.Client, logger *logrus.Logger) (*history.Store, error) {
	if cfg.ClickHouseAddr == "" {
		return history.NewStore(rclient, nil, logger)
	}
	conn, err := history.OpenClickHouse(cfg.ClickHouseAddr, cfg.ClickHouseDatabase, cfg.ClickHouseUsername, cfg.ClickHousePassword)
	if err != nil {
		logger.WithError(err).Warn("clickhouse unreachable, history table disabled")
		return history.NewStore(rclient, nil, logger)
	}
	return history.NewStore(rclient, conn, logger)
}
