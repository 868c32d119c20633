//go:build integration

package report

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"fraudwatch/internal/gateway/entity"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// setupPostgres starts one pgvector container per test run, applies the
// embedded migrations and returns a fresh pool with an empty reports table.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Fatalf("setup postgres: %v", pgErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPool(ctx, pgDSN, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE reports")
	require.NoError(t, err)
	return pool
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg17",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return "", err
	}
	defer db.Close()
	if _, err := Migrate(ctx, db); err != nil {
		return "", err
	}
	return dsn, nil
}

func TestPostgresStoreInsertGet(t *testing.T) {
	s := NewPostgresStore(setupPostgres(t))
	ctx := context.Background()

	id, err := s.Insert(ctx, entity.Report{
		Title: "Fake parcel SMS", Type: "Phishing", Content: "link to pay customs",
		ImageRef: "https://cdn.example/a.jpg", Embedding: []float32{0.6, 0.8},
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fake parcel SMS", got.Title)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, []float32{0.6, 0.8}, got.Embedding)
	assert.Equal(t, "https://cdn.example/a.jpg", got.ImageRef)
}

func TestPostgresStoreInsertWithoutEmbedding(t *testing.T) {
	s := NewPostgresStore(setupPostgres(t))
	ctx := context.Background()

	id, err := s.Insert(ctx, entity.Report{Title: "a", Type: "b", Content: "c"})
	require.NoError(t, err)
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Embedding)
	assert.Empty(t, got.ImageRef)

	_, ok, err := s.Nearest(ctx, []float32{1, 0}, 0.1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStoreUpdateConflictAndNotFound(t *testing.T) {
	s := NewPostgresStore(setupPostgres(t))
	ctx := context.Background()
	id, err := s.Insert(ctx, entity.Report{Title: "a", Type: "b", Content: "c"})
	require.NoError(t, err)

	count := 2
	r, err := s.Update(ctx, id, 1, entity.ReportPatch{Count: &count, Embedding: []float32{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Version)
	assert.Equal(t, []float32{1, 0}, r.Embedding)

	_, err = s.Update(ctx, id, 1, entity.ReportPatch{Count: &count})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Update(ctx, "00000000-0000-0000-0000-000000000001", 1, entity.ReportPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreNearestSkipsOtherDimensions(t *testing.T) {
	s := NewPostgresStore(setupPostgres(t))
	ctx := context.Background()
	want, err := s.Insert(ctx, entity.Report{Title: "2d", Embedding: []float32{0.85, 0.526783}})
	require.NoError(t, err)
	_, err = s.Insert(ctx, entity.Report{Title: "3d", Embedding: []float32{0.8, 0.6, 0}})
	require.NoError(t, err)

	m, ok, err := s.Nearest(ctx, []float32{0.8, 0.6}, 0.8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, m.Report.ID)
	assert.InDelta(t, 0.996, m.Similarity, 0.01)
}

func TestPostgresStoreBroadcastCandidates(t *testing.T) {
	s := NewPostgresStore(setupPostgres(t))
	ctx := context.Background()

	_, err := s.Insert(ctx, entity.Report{Title: "two", Count: 2})
	require.NoError(t, err)
	three, err := s.Insert(ctx, entity.Report{Title: "three", Count: 3})
	require.NoError(t, err)
	five, err := s.Insert(ctx, entity.Report{Title: "five", Count: 5})
	require.NoError(t, err)

	got, err := s.SelectBroadcastCandidates(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, five, got[0].ID)
	assert.Equal(t, three, got[1].ID)

	require.NoError(t, s.MarkBroadcasted(ctx, five))
	got, err = s.SelectBroadcastCandidates(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, three, got[0].ID)
}
