// Package report persists incident reports and answers the similarity and
// broadcast-eligibility queries the lifecycle engine relies on.
package report

import (
	"context"
	"errors"

	"fraudwatch/internal/gateway/entity"
)

var (
	ErrNotFound = errors.New("report not found")
	// ErrConflict is returned by Update when the stored version no longer
	// matches the version the caller read.
	ErrConflict = errors.New("report version conflict")
)

// Match is the nearest neighbour returned by a similarity query.
type Match struct {
	Report     entity.Report
	Similarity float64
}

// Store defines operations for persisting reports. Implementations must
// serialize conflicting updates to the same record.
type Store interface {
	// Insert stores a new report and returns its id. An empty id is assigned.
	Insert(ctx context.Context, r entity.Report) (string, error)
	Get(ctx context.Context, id string) (entity.Report, error)
	// Update applies patch only if the record is still at expectedVersion.
	Update(ctx context.Context, id string, expectedVersion int64, patch entity.ReportPatch) (entity.Report, error)
	// Nearest returns the single most similar report whose cosine similarity
	// to embedding is at least threshold.
	Nearest(ctx context.Context, embedding []float32, threshold float64) (Match, bool, error)
	// SelectBroadcastCandidates lists unbroadcast reports with count >= minCount.
	SelectBroadcastCandidates(ctx context.Context, minCount int) ([]entity.Report, error)
	MarkBroadcasted(ctx context.Context, id string) error
}
