// Package submission turns a finalized draft into a stored report: it gates
// the draft through the legitimacy check, then either merges it into the
// most similar existing report or inserts a new one.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fraudwatch/internal/cache/media"
	"fraudwatch/internal/gateway/entity"
	evidencerepo "fraudwatch/internal/gateway/repository/evidence"
	reportrepo "fraudwatch/internal/gateway/repository/report"
	"fraudwatch/internal/gateway/service/aigateway"
)

// AI is the subset of the AI gateway the pipeline calls.
type AI interface {
	Classify(ctx context.Context, description string) (aigateway.Verdict, error)
	Summarize(ctx context.Context, text string, img *aigateway.Image) (entity.Summary, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Notifier delivers status messages to the submitting user. Delivery is best
// effort.
type Notifier interface {
	Notify(ctx context.Context, chatID, text string) error
}

// MediaFetcher resolves a photo handle stored on a draft to its bytes.
type MediaFetcher interface {
	Fetch(ctx context.Context, handle string) (media.Blob, error)
}

type Config struct {
	SimilarityThreshold float64
	StoreTimeout        time.Duration
	// MaxMergeAttempts bounds re-read and re-merge cycles after an
	// optimistic-lock conflict.
	MaxMergeAttempts int
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.8,
		StoreTimeout:        10 * time.Second,
		MaxMergeAttempts:    3,
	}
}

type Pipeline struct {
	ai       AI
	reports  reportrepo.Store
	evidence evidencerepo.Store
	media    MediaFetcher
	notifier Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// New builds a pipeline. evidence and fetcher may be nil, in which case photo
// evidence is noted but never uploaded.
func New(ai AI, reports reportrepo.Store, evidence evidencerepo.Store, fetcher MediaFetcher, notifier Notifier, cfg Config, logger *slog.Logger) *Pipeline {
	def := DefaultConfig()
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.MaxMergeAttempts <= 0 {
		cfg.MaxMergeAttempts = def.MaxMergeAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ai:       ai,
		reports:  reports,
		evidence: evidence,
		media:    fetcher,
		notifier: notifier,
		cfg:      cfg,
		log:      logger.With("component", "submission"),
		now:      time.Now,
	}
}

// Submit runs the draft through the pipeline and reports what happened. It
// never panics on external failures; every path ends with a status message
// to chatID.
func (p *Pipeline) Submit(ctx context.Context, chatID string, d entity.Draft) Outcome {
	log := p.log.With("user_id", d.UserID.String())

	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		p.notify(ctx, chatID, msgMissingDescription)
		return p.finish(ctx, log, Outcome{Result: ResultMissingDescription, Err: entity.ErrMissingDescription})
	}

	verdict, err := p.ai.Classify(ctx, desc)
	if err != nil || verdict != aigateway.VerdictLegitimate {
		reason := verdict.String()
		if err != nil {
			reason = err.Error()
		}
		log.InfoContext(ctx, "report rejected by legitimacy check", "reason", reason)
		p.notify(ctx, chatID, msgRejected)
		return p.finish(ctx, log, Outcome{Result: ResultRejected, Err: fmt.Errorf("%w: %s", entity.ErrInputRejected, reason)})
	}
	p.notify(ctx, chatID, msgVerified)

	ev := p.materializeEvidence(ctx, chatID, d)
	sub := submission{
		chatID:      chatID,
		description: desc,
		input:       summaryInput(desc, d.Evidence, ev.notes),
		evidence:    ev,
	}

	emb, err := p.ai.Embed(ctx, desc)
	if err != nil {
		log.WarnContext(ctx, "embedding failed, skipping similarity search", "error", err)
		p.notify(ctx, chatID, msgNoEmbedding)
		sub.degraded = append(sub.degraded, "no_embedding")
	} else {
		sub.embedding = emb
	}

	if sub.embedding != nil {
		if out, ok := p.mergeIntoNearest(ctx, log, &sub); ok {
			return p.finish(ctx, log, out)
		}
	}
	return p.finish(ctx, log, p.insert(ctx, log, &sub))
}

// submission carries the per-call state shared by the merge and insert paths.
type submission struct {
	chatID      string
	description string
	input       string
	embedding   []float32
	evidence    evidenceResult
	degraded    []string
}

func (p *Pipeline) mergeIntoNearest(ctx context.Context, log *slog.Logger, sub *submission) (Outcome, bool) {
	sctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	match, found, err := p.reports.Nearest(sctx, sub.embedding, p.cfg.SimilarityThreshold)
	cancel()
	if err != nil {
		log.WarnContext(ctx, "similarity search failed", "error", err)
		p.notify(ctx, sub.chatID, msgSearchFailed)
		sub.degraded = append(sub.degraded, "search_failed")
		return Outcome{}, false
	}
	if !found {
		p.notify(ctx, sub.chatID, msgNoSimilar)
		return Outcome{}, false
	}

	log = log.With("report_id", match.Report.ID)
	log.InfoContext(ctx, "similar report found", "similarity", match.Similarity)
	p.notify(ctx, sub.chatID, fmt.Sprintf(msgSimilarFound, shortID(match.Report.ID)))

	existing := match.Report
	warned := false
	for attempt := 1; attempt <= p.cfg.MaxMergeAttempts; attempt++ {
		if attempt > 1 {
			sctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
			fresh, err := p.reports.Get(sctx, existing.ID)
			cancel()
			if err != nil {
				log.WarnContext(ctx, "re-read before merge retry failed", "error", err)
				break
			}
			existing = fresh
		}

		patch, fellBack := p.buildMerge(ctx, existing, sub)
		if fellBack && !warned {
			p.notify(ctx, sub.chatID, msgMergeSummaryFallback)
			sub.degraded = append(sub.degraded, "merge_summary_fallback")
			warned = true
		}

		sctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
		updated, err := p.reports.Update(sctx, existing.ID, existing.Version, patch)
		cancel()
		if err == nil {
			p.notify(ctx, sub.chatID, msgMerged)
			return Outcome{Result: ResultMerged, Report: updated, Degraded: sub.degraded}, true
		}
		if errors.Is(err, reportrepo.ErrConflict) {
			log.InfoContext(ctx, "merge lost optimistic lock, retrying", "attempt", attempt)
			continue
		}
		log.WarnContext(ctx, "merge update failed", "error", err)
		break
	}

	p.notify(ctx, sub.chatID, msgMergeFailed)
	sub.degraded = append(sub.degraded, "merge_failed")
	return Outcome{}, false
}

// buildMerge computes the patch that folds sub into existing. The second
// return reports whether the summarizer fallback was used.
func (p *Pipeline) buildMerge(ctx context.Context, existing entity.Report, sub *submission) (entity.ReportPatch, bool) {
	combined := mergeText(existing.Content, sub.input)
	sum, err := p.ai.Summarize(ctx, combined, nil)
	fellBack := false
	if err != nil {
		p.log.WarnContext(ctx, "merge summarize failed, keeping existing summary", "report_id", existing.ID, "error", err)
		sum = entity.Summary{Title: existing.Title, Type: existing.Type, Content: combined}
		fellBack = true
	}
	count := existing.Count + 1
	patch := entity.ReportPatch{
		Title:     &sum.Title,
		Type:      &sum.Type,
		Content:   &sum.Content,
		Embedding: entity.AverageEmbeddings(existing.Embedding, sub.embedding),
		Count:     &count,
		UpdatedAt: p.now(),
	}
	if u := sub.evidence.url; u != "" {
		patch.ImageRef = &u
	}
	return patch, fellBack
}

func (p *Pipeline) insert(ctx context.Context, log *slog.Logger, sub *submission) Outcome {
	sum, err := p.ai.Summarize(ctx, sub.input, sub.evidence.image)
	if err != nil {
		log.WarnContext(ctx, "summarize failed, using fallback summary", "error", err)
		if errors.Is(err, entity.ErrMalformedAIOutput) {
			p.notify(ctx, sub.chatID, msgSummaryUnparseable)
		} else {
			p.notify(ctx, sub.chatID, msgSummaryUnavailable)
		}
		sum = fallbackSummary(sub.description)
		sub.degraded = append(sub.degraded, "summary_fallback")
	}

	now := p.now()
	r := entity.Report{
		ID:        newReportID(),
		Title:     sum.Title,
		Type:      sum.Type,
		Content:   sum.Content,
		ImageRef:  sub.evidence.url,
		Embedding: sub.embedding,
		Count:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	id, err := p.reports.Insert(sctx, r)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "insert report failed", "error", err)
		p.notify(ctx, sub.chatID, msgInsertFailed)
		if !errors.Is(err, entity.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
		}
		return Outcome{Result: ResultFailed, Degraded: sub.degraded, Err: err}
	}
	r.ID = id
	r.Version = 1
	p.notify(ctx, sub.chatID, msgInserted)
	return Outcome{Result: ResultNew, Report: r, Degraded: sub.degraded}
}

func (p *Pipeline) finish(ctx context.Context, log *slog.Logger, out Outcome) Outcome {
	attrs := []any{"outcome", out.Result.String()}
	if out.Report.ID != "" {
		attrs = append(attrs, "report_id", out.Report.ID, "count", out.Report.Count)
	}
	if len(out.Degraded) > 0 {
		attrs = append(attrs, "degraded", strings.Join(out.Degraded, ","))
	}
	if out.Err != nil {
		attrs = append(attrs, "error", out.Err)
	}
	log.InfoContext(ctx, "submission finished", attrs...)
	return out
}

func (p *Pipeline) notify(ctx context.Context, chatID, text string) {
	if p.notifier == nil || strings.TrimSpace(chatID) == "" {
		return
	}
	if err := p.notifier.Notify(ctx, chatID, text); err != nil {
		p.log.DebugContext(ctx, "status message not delivered", "chat_id", chatID, "error", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
