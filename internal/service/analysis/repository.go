package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/park285/chess-humanmoves/internal/domain"
)

var ErrDuplicateAnalysis = errors.New("analysis already recorded")

type Repository interface {
	InsertAnalysis(ctx context.Context, rec *domain.AnalysisRecord) error
	RecentAnalyses(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id            UUID PRIMARY KEY,
	engine        TEXT NOT NULL,
	fen           TEXT NOT NULL,
	depth         INTEGER NOT NULL,
	multipv       INTEGER NOT NULL,
	candidates    INTEGER NOT NULL,
	checks        INTEGER NOT NULL,
	captures      INTEGER NOT NULL,
	best_move     TEXT NOT NULL DEFAULT '',
	skipped_lines INTEGER NOT NULL DEFAULT 0,
	duration_ms   BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	payload       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at DESC);`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// EnsureSchema creates the analyses table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create analyses schema: %w", err)
	}
	return nil
}

func (r *repository) InsertAnalysis(ctx context.Context, rec *domain.AnalysisRecord) error {
	if rec == nil {
		return fmt.Errorf("nil analysis record")
	}
	payload := rec.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	const query = `
		INSERT INTO analyses (
			id,
			engine,
			fen,
			depth,
			multipv,
			candidates,
			checks,
			captures,
			best_move,
			skipped_lines,
			duration_ms,
			created_at,
			payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Engine,
		rec.FEN,
		rec.Depth,
		rec.MultiPV,
		rec.Candidates,
		rec.Checks,
		rec.Captures,
		rec.BestMove,
		rec.SkippedLines,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateAnalysis
	}
	return nil
}

func (r *repository) RecentAnalyses(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT
			id,
			engine,
			fen,
			depth,
			multipv,
			candidates,
			checks,
			captures,
			best_move,
			skipped_lines,
			duration_ms,
			created_at,
			payload
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select analyses: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.AnalysisRecord, 0, limit)
	for rows.Next() {
		var (
			rec        domain.AnalysisRecord
			durationMS sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Engine,
			&rec.FEN,
			&rec.Depth,
			&rec.MultiPV,
			&rec.Candidates,
			&rec.Checks,
			&rec.Captures,
			&rec.BestMove,
			&rec.SkippedLines,
			&durationMS,
			&rec.CreatedAt,
			&rec.Payload,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if durationMS.Valid {
			rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}
