// Package broadcast periodically publishes reports that have been reported
// often enough to a public channel.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fraudwatch/internal/gateway/entity"
	reportrepo "fraudwatch/internal/gateway/repository/report"
)

// Announcement is one public channel post.
type Announcement struct {
	ReportID string `json:"report_id"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, a Announcement) error
}

type Config struct {
	Interval     time.Duration
	MinCount     int
	StoreTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:     5 * time.Minute,
		MinCount:     3,
		StoreTimeout: 10 * time.Second,
	}
}

// SweepResult summarizes one tick.
type SweepResult struct {
	Candidates int
	Published  int
	// Failed counts reports whose publish or mark step failed. They are
	// retried on the next tick.
	Failed int
}

type Sweeper struct {
	reports   reportrepo.Store
	publisher Publisher
	cfg       Config
	log       *slog.Logger
}

func New(reports reportrepo.Store, publisher Publisher, cfg Config, logger *slog.Logger) *Sweeper {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MinCount <= 0 {
		cfg.MinCount = def.MinCount
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		reports:   reports,
		publisher: publisher,
		cfg:       cfg,
		log:       logger.With("component", "broadcast"),
	}
}

// Run ticks every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "broadcast sweeper started", "interval", s.cfg.Interval.String(), "min_count", s.cfg.MinCount)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.log.WarnContext(ctx, "broadcast tick failed", "error", err)
			}
		}
	}
}

// Tick publishes every eligible report once. Only the candidate query can
// fail the tick; per-report failures are counted and logged.
func (s *Sweeper) Tick(ctx context.Context) (SweepResult, error) {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	candidates, err := s.reports.SelectBroadcastCandidates(qctx, s.cfg.MinCount)
	cancel()
	if err != nil {
		return SweepResult{}, fmt.Errorf("select broadcast candidates: %w", err)
	}

	res := SweepResult{Candidates: len(candidates)}
	for _, r := range candidates {
		if ctx.Err() != nil {
			break
		}
		// the store query is trusted, but never announce below threshold
		if r.Broadcasted || r.Count < s.cfg.MinCount {
			continue
		}
		if err := s.publishOne(ctx, r); err != nil {
			res.Failed++
			s.log.WarnContext(ctx, "broadcast failed", "report_id", r.ID, "error", err)
			continue
		}
		res.Published++
	}
	if res.Candidates > 0 {
		s.log.InfoContext(ctx, "broadcast tick finished", "candidates", res.Candidates, "published", res.Published, "failed", res.Failed)
	}
	return res, nil
}

func (s *Sweeper) publishOne(ctx context.Context, r entity.Report) error {
	if err := s.publisher.Publish(ctx, Render(r)); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	mctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.reports.MarkBroadcasted(mctx, r.ID); err != nil {
		return fmt.Errorf("mark broadcasted after publish: %w", err)
	}
	return nil
}
