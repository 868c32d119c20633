package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fraudwatch/internal/gateway/entity"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportsTable = "reports"

var reportColumns = []string{
	"id", "title", "type", "content", "image_ref", "embedding::text",
	"count", "broadcasted", "version", "created_at", "updated_at",
}

// PostgresStore keeps reports in Postgres with pgvector embeddings.
type PostgresStore struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
	now  func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

// NewPool creates a connection pool and pings it for fail-fast validation.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) Insert(ctx context.Context, r entity.Report) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("store is nil")
	}
	id, err := parseOrNewID(r.ID)
	if err != nil {
		return "", err
	}
	if r.Count < 1 {
		r.Count = 1
	}
	now := s.now()
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}

	q := s.psql.Insert(reportsTable).
		Columns("id", "title", "type", "content", "image_ref", "embedding", "count", "broadcasted", "version", "created_at", "updated_at").
		Values(id, r.Title, r.Type, r.Content, nullableString(r.ImageRef), sq.Expr("?::vector", nullableVector(r.Embedding)),
			r.Count, false, 1, now, r.UpdatedAt)
	query, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return "", mapError(err, "insert", id.String())
	}
	return id.String(), nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (entity.Report, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return entity.Report{}, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	query, args, err := s.psql.Select(reportColumns...).From(reportsTable).Where(sq.Eq{"id": uid}).ToSql()
	if err != nil {
		return entity.Report{}, fmt.Errorf("build get: %w", err)
	}
	r, err := scanReport(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return entity.Report{}, mapError(err, "get", id)
	}
	return r, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, expectedVersion int64, patch entity.ReportPatch) (entity.Report, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return entity.Report{}, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	q := s.psql.Update(reportsTable).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", updatedAt)
	if patch.Title != nil {
		q = q.Set("title", *patch.Title)
	}
	if patch.Type != nil {
		q = q.Set("type", *patch.Type)
	}
	if patch.Content != nil {
		q = q.Set("content", *patch.Content)
	}
	if patch.ImageRef != nil {
		q = q.Set("image_ref", nullableString(*patch.ImageRef))
	}
	if patch.Embedding != nil {
		q = q.Set("embedding", sq.Expr("?::vector", nullableVector(patch.Embedding)))
	}
	if patch.Count != nil {
		q = q.Set("count", *patch.Count)
	}
	q = q.Where(sq.Eq{"id": uid, "version": expectedVersion}).
		Suffix("RETURNING " + strings.Join(reportColumns, ", "))

	query, args, err := q.ToSql()
	if err != nil {
		return entity.Report{}, fmt.Errorf("build update: %w", err)
	}
	r, err := scanReport(s.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return entity.Report{}, mapError(err, "update", id)
	}
	// Nothing matched: either the row is gone or someone else bumped the version.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return entity.Report{}, getErr
	}
	return entity.Report{}, fmt.Errorf("report %s expected version %d: %w", id, expectedVersion, ErrConflict)
}

func (s *PostgresStore) Nearest(ctx context.Context, embedding []float32, threshold float64) (Match, bool, error) {
	if len(embedding) == 0 {
		return Match{}, false, nil
	}
	vec := formatVector(embedding)
	q := s.psql.Select(reportColumns...).
		Column(sq.Expr("1 - (embedding <=> ?::vector) AS similarity", vec)).
		From(reportsTable).
		Where("embedding IS NOT NULL").
		Where(sq.Expr("vector_dims(embedding) = ?", len(embedding))).
		Where(sq.Expr("1 - (embedding <=> ?::vector) >= ?", vec, threshold)).
		OrderByClause("embedding <=> ?::vector", vec).
		Limit(1)
	query, args, err := q.ToSql()
	if err != nil {
		return Match{}, false, fmt.Errorf("build nearest: %w", err)
	}

	var (
		m   Match
		raw rawReport
	)
	dest := append(raw.dest(), &m.Similarity)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Match{}, false, nil
		}
		return Match{}, false, mapError(err, "nearest", "")
	}
	r, err := raw.toEntity()
	if err != nil {
		return Match{}, false, err
	}
	m.Report = r
	return m, true, nil
}

func (s *PostgresStore) SelectBroadcastCandidates(ctx context.Context, minCount int) ([]entity.Report, error) {
	query, args, err := s.psql.Select(reportColumns...).
		From(reportsTable).
		Where(sq.And{sq.GtOrEq{"count": minCount}, sq.Eq{"broadcasted": false}}).
		OrderBy("count DESC", "updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidates: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "candidates", "")
	}
	defer rows.Close()

	out := make([]entity.Report, 0, 8)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, mapError(err, "candidates", "")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "candidates", "")
	}
	return out, nil
}

func (s *PostgresStore) MarkBroadcasted(ctx context.Context, id string) error {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	query, args, err := s.psql.Update(reportsTable).
		Set("broadcasted", true).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": uid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark: %w", err)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "mark broadcasted", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return nil
}

type rawReport struct {
	id          uuid.UUID
	title       string
	typ         string
	content     string
	imageRef    *string
	embedding   *string
	count       int
	broadcasted bool
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

func (r *rawReport) dest() []any {
	return []any{&r.id, &r.title, &r.typ, &r.content, &r.imageRef, &r.embedding,
		&r.count, &r.broadcasted, &r.version, &r.createdAt, &r.updatedAt}
}

func (r *rawReport) toEntity() (entity.Report, error) {
	out := entity.Report{
		ID:          r.id.String(),
		Title:       r.title,
		Type:        r.typ,
		Content:     r.content,
		Count:       r.count,
		Broadcasted: r.broadcasted,
		Version:     r.version,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
	if r.imageRef != nil {
		out.ImageRef = *r.imageRef
	}
	if r.embedding != nil {
		vec, err := parseVector(*r.embedding)
		if err != nil {
			return entity.Report{}, fmt.Errorf("report %s: %w", out.ID, err)
		}
		out.Embedding = vec
	}
	return out, nil
}

func scanReport(row pgx.Row) (entity.Report, error) {
	var raw rawReport
	if err := row.Scan(raw.dest()...); err != nil {
		return entity.Report{}, err
	}
	return raw.toEntity()
}

func parseOrNewID(id string) (uuid.UUID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.New(), nil
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid report id %q: %w", id, err)
	}
	return uid, nil
}

func nullableString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func nullableVector(v []float32) *string {
	if len(v) == 0 {
		return nil
	}
	s := formatVector(v)
	return &s
}

// mapError converts pgx/pgconn errors to store errors.
// context.DeadlineExceeded and context.Canceled pass through untouched.
func mapError(err error, op, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("report %s %s: %w: %w", op, id, entity.ErrStoreUnavailable, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("report %s %s: %w", op, id, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
		return fmt.Errorf("report %s %s: %w", op, id, err)
	}
	return fmt.Errorf("report %s %s: %w: %w", op, id, entity.ErrStoreUnavailable, err)
}
