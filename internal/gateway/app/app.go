package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fraudwatch/internal/cache/media"
	"fraudwatch/internal/gateway/config"
	"fraudwatch/internal/gateway/handler"
	"fraudwatch/internal/gateway/repository/session"
	"fraudwatch/internal/gateway/server"
	"fraudwatch/internal/gateway/service/aigateway"
	"fraudwatch/internal/gateway/service/broadcast"
	"fraudwatch/internal/gateway/service/conversation"
	"fraudwatch/internal/gateway/service/submission"
	llmclient "fraudwatch/internal/llmClient"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg     *config.Config
	log     *slog.Logger
	server  *server.Server
	sweeper *broadcast.Sweeper
	engine  *conversation.Engine
	ai      llmclient.LLMClient
	stores  *gatewayStores
}

// New wires every component. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	cli, err := newLLMClient(ctx, cfg.AI, logger)
	if err != nil {
		stores.close()
		return nil, err
	}

	// Dependencies
	ai := aigateway.New(cli, aigateway.Config{
		Model:      cfg.AI.Model,
		ChatModel:  cfg.AI.ChatModel,
		EmbedModel: cfg.AI.EmbedModel,
		EmbedDims:  cfg.AI.EmbedDims,
	}, logger)
	photos := media.NewStore(media.Config{
		MaxBytes: cfg.Media.CacheBytes,
		TTL:      cfg.Media.TTL,
	})
	sessions := session.NewMemoryStore(session.Config{
		MaxSessions: cfg.Session.MaxSessions,
		TTL:         cfg.Session.TTL,
	}, logger)

	chatHub := handler.NewChatHub(photos, logger)
	channelHub := handler.NewChannelHub(logger)

	pipeline := submission.New(ai, stores.reports, stores.evidence, photos, chatHub, submission.Config{
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		StoreTimeout:        cfg.Pipeline.StoreTimeout,
		MaxMergeAttempts:    submission.DefaultConfig().MaxMergeAttempts,
	}, logger)
	engine := conversation.New(sessions, session.NewLocker(), pipeline, ai, chatHub, logger)
	chatHub.SetEventHandler(engine)

	sweeper := broadcast.New(stores.reports, channelHub, broadcast.Config{
		Interval:     cfg.Broadcast.Interval,
		MinCount:     cfg.Broadcast.MinCount,
		StoreTimeout: cfg.Pipeline.StoreTimeout,
	}, logger)

	// Routing & Server
	mux := server.NewMux(chatHub, channelHub, handler.NewMediaHandler(photos, stores.evidence, logger))
	srv := server.New(cfg.Port, mux, logger)

	return &App{
		cfg:     cfg,
		log:     logger,
		server:  srv,
		sweeper: sweeper,
		engine:  engine,
		ai:      cli,
		stores:  stores,
	}, nil
}

// Run serves HTTP and runs the sweeper until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.server.Start)
	g.Go(func() error {
		return a.sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("server exiting")
	return nil
}

// SweepOnce runs a single broadcast pass.
func (a *App) SweepOnce(ctx context.Context) (broadcast.SweepResult, error) {
	return a.sweeper.Tick(ctx)
}

func (a *App) Close() error {
	a.stores.close()
	return a.ai.Close()
}
