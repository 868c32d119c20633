package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fraudwatch/internal/gateway/entity"
	reportrepo "fraudwatch/internal/gateway/repository/report"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	posts  []Announcement
	failOn map[string]bool
}

func (p *recordingPublisher) Publish(_ context.Context, a Announcement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn[a.ReportID] {
		return errors.New("channel unavailable")
	}
	p.posts = append(p.posts, a)
	return nil
}

type failingMarkStore struct {
	*reportrepo.MemoryStore
}

func (failingMarkStore) MarkBroadcasted(context.Context, string) error {
	return errors.New("store down")
}

func seed(t *testing.T, s *reportrepo.MemoryStore, title string, count int) string {
	t.Helper()
	id, err := s.Insert(context.Background(), entity.Report{Title: title, Type: "Phishing", Content: "c", Count: count})
	require.NoError(t, err)
	return id
}

func TestTickPublishesOnlyEligible(t *testing.T) {
	store := reportrepo.NewMemoryStore()
	pub := &recordingPublisher{}
	eligible := seed(t, store, "hot", 3)
	seed(t, store, "cold", 2)
	done := seed(t, store, "done", 9)
	require.NoError(t, store.MarkBroadcasted(context.Background(), done))

	s := New(store, pub, DefaultConfig(), nil)
	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Candidates: 1, Published: 1}, res)
	require.Len(t, pub.posts, 1)
	assert.Equal(t, eligible, pub.posts[0].ReportID)

	r, _ := store.Get(context.Background(), eligible)
	assert.True(t, r.Broadcasted)
}

func TestTickIsIdempotent(t *testing.T) {
	store := reportrepo.NewMemoryStore()
	pub := &recordingPublisher{}
	seed(t, store, "hot", 4)
	s := New(store, pub, DefaultConfig(), nil)

	_, err := s.Tick(context.Background())
	require.NoError(t, err)
	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
	assert.Len(t, pub.posts, 1)
}

func TestTickIsolatesFailures(t *testing.T) {
	store := reportrepo.NewMemoryStore()
	bad := seed(t, store, "bad", 5)
	good := seed(t, store, "good", 3)
	pub := &recordingPublisher{failOn: map[string]bool{bad: true}}
	s := New(store, pub, DefaultConfig(), nil)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Candidates: 2, Published: 1, Failed: 1}, res)

	r, _ := store.Get(context.Background(), bad)
	assert.False(t, r.Broadcasted, "failed publish must be retried")
	r, _ = store.Get(context.Background(), good)
	assert.True(t, r.Broadcasted)

	// next tick retries the failed one
	pub.failOn = nil
	res, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Candidates: 1, Published: 1}, res)
}

func TestTickMarkFailureLeavesRecordForRetry(t *testing.T) {
	mem := reportrepo.NewMemoryStore()
	id := seed(t, mem, "hot", 3)
	pub := &recordingPublisher{}
	s := New(failingMarkStore{mem}, pub, DefaultConfig(), nil)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, pub.posts, 1)
	r, _ := mem.Get(context.Background(), id)
	assert.False(t, r.Broadcasted)
}

func TestRender(t *testing.T) {
	r := entity.Report{
		ID: "r1", Title: "Fake courier fee", Type: "Phishing - SMS", Count: 4,
		Content: `Pay a small fee via link.\ \ Never click unknown links.`, ImageRef: "https://cdn.example/x.jpg",
	}
	want := Announcement{
		ReportID: "r1",
		Text: "📢 *Scam Alert!* 📢\n\n*Title:* Fake courier fee\n*Type:* Phishing - SMS\n*Reported Instances:* 4\n\n" +
			"*Details & How to Avoid:*\nPay a small fee via link.\nNever click unknown links.\n\n" +
			"#FraudWatch #ScamAlert #PhishingSMS",
		ImageURL: "https://cdn.example/x.jpg",
	}
	if diff := cmp.Diff(want, Render(r)); diff != "" {
		t.Fatalf("announcement mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(reportrepo.NewMemoryStore(), &recordingPublisher{}, Config{Interval: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
