package app

import (
	"context"
	"fmt"
	"log/slog"

	evidencecache "fraudwatch/internal/cache/evidence"
	"fraudwatch/internal/gateway/config"
	evidencerepo "fraudwatch/internal/gateway/repository/evidence"
	reportrepo "fraudwatch/internal/gateway/repository/report"
)

// localEvidenceBase is where in-memory evidence URLs point. The server
// serves it from the same store.
const localEvidenceBase = "/evidence"

type gatewayStores struct {
	reports  reportrepo.Store
	evidence *evidencecache.CachedStore
	close    func()
}

func initStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gatewayStores, error) {
	evidence, err := chooseEvidenceStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL != "" {
		return initPostgresStores(ctx, cfg, evidence, logger)
	}
	logger.Warn("report store: in-memory (DATABASE_URL not set), reports are lost on restart")
	return &gatewayStores{
		reports:  reportrepo.NewMemoryStore(),
		evidence: evidence,
		close:    func() {},
	}, nil
}

func initPostgresStores(ctx context.Context, cfg *config.Config, evidence *evidencecache.CachedStore, logger *slog.Logger) (*gatewayStores, error) {
	if cfg.Database.AutoMigrate {
		results, err := reportrepo.MigrateDSN(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate report schema: %w", err)
		}
		logger.Info("report schema migrated", "applied", len(results))
	}
	pool, err := reportrepo.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to open report db: %w", err)
	}
	logger.Info("report store: postgres", "max_conns", cfg.Database.MaxConns)
	return &gatewayStores{
		reports:  reportrepo.NewPostgresStore(pool),
		evidence: evidence,
		close:    pool.Close,
	}, nil
}

func chooseEvidenceStore(cfg *config.Config, logger *slog.Logger) (*evidencecache.CachedStore, error) {
	var origin evidencerepo.Store
	if cfg.Evidence.CanUseS3() {
		s3Cfg := evidencerepo.S3Config{
			Endpoint:      cfg.Evidence.Endpoint,
			Region:        cfg.Evidence.Region,
			AccessKey:     cfg.Evidence.AccessKey,
			SecretKey:     cfg.Evidence.SecretKey,
			Bucket:        cfg.Evidence.Bucket,
			UseSSL:        cfg.Evidence.UseSSL,
			PublicBaseURL: cfg.Evidence.PublicBaseURL,
		}
		s3Store, err := evidencerepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize evidence s3 store: %w", err)
		}
		logger.Info("evidence store: s3", "bucket", s3Cfg.Bucket, "endpoint", s3Cfg.Endpoint)
		origin = s3Store
	} else {
		if cfg.Evidence.Endpoint != "" {
			logger.Warn("evidence store: using in-memory fallback (s3 config incomplete)")
		}
		origin = evidencerepo.NewMemoryStore(localEvidenceBase)
	}
	return evidencecache.NewCachedStore(origin, evidencecache.DefaultCacheConfig()), nil
}
