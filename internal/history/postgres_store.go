package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS post_history (
	id SERIAL PRIMARY KEY,
	identity_key VARCHAR(64) NOT NULL,
	post_type VARCHAR(20) NOT NULL,
	posted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_post_history_key ON post_history(identity_key);
CREATE INDEX IF NOT EXISTS idx_post_history_posted_at ON post_history(posted_at);

CREATE TABLE IF NOT EXISTS daily_post_counts (
	day VARCHAR(10) PRIMARY KEY,
	post_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history_meta (
	id SMALLINT PRIMARY KEY,
	last_post_at TIMESTAMPTZ,
	last_by_type TEXT NOT NULL DEFAULT '{}'
);
`

// PostgresStore keeps the history in PostgreSQL. Save replaces the stored
// record inside one transaction.
type PostgresStore struct {
	db     *sql.DB
	policy Policy
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// OpenPostgres connects to dsn, checks the connection and creates the
// tables when missing.
func OpenPostgres(ctx context.Context, dsn string, policy Policy, loc *time.Location, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	ps := NewPostgresStore(db, policy, loc, logger)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	ps.logger.InfoContext(ctx, "postgres history store ready")
	return ps, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, policy Policy, loc *time.Location, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresStore{
		db:     db,
		policy: policy,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// Load reads the stored record. Query failures are logged and yield an
// empty record.
func (ps *PostgresStore) Load(ctx context.Context) Record {
	rec, err := ps.load(ctx)
	if err != nil {
		ps.logger.WarnContext(ctx, "failed to load history from database", "error", err)
		return Empty()
	}
	return Normalize(rec)
}

func (ps *PostgresStore) load(ctx context.Context) (Record, error) {
	rec := Empty()

	rows, err := ps.db.QueryContext(ctx, `SELECT identity_key, post_type, posted_at FROM post_history ORDER BY posted_at, id`)
	if err != nil {
		return rec, fmt.Errorf("query posts: %w", err)
	}
	for rows.Next() {
		var e Entry
		var postType string
		if err := rows.Scan(&e.Key, &postType, &e.PostedAt); err != nil {
			rows.Close()
			return rec, fmt.Errorf("scan post: %w", err)
		}
		e.Type = PostType(postType)
		rec.Posts = append(rec.Posts, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return rec, fmt.Errorf("iterate posts: %w", err)
	}
	rows.Close()

	rows, err = ps.db.QueryContext(ctx, `SELECT day, post_count FROM daily_post_counts`)
	if err != nil {
		return rec, fmt.Errorf("query daily counts: %w", err)
	}
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			rows.Close()
			return rec, fmt.Errorf("scan daily count: %w", err)
		}
		rec.DailyCount[day] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return rec, fmt.Errorf("iterate daily counts: %w", err)
	}
	rows.Close()

	var lastPost sql.NullTime
	var lastByType string
	err = ps.db.QueryRowContext(ctx, `SELECT last_post_at, last_by_type FROM history_meta WHERE id = 1`).Scan(&lastPost, &lastByType)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return rec, nil
	case err != nil:
		return rec, fmt.Errorf("query history meta: %w", err)
	}
	if lastPost.Valid {
		ts := lastPost.Time
		rec.LastPostAt = &ts
	}
	if lastByType != "" {
		if err := json.Unmarshal([]byte(lastByType), &rec.LastByType); err != nil {
			return rec, fmt.Errorf("decode last_by_type: %w", err)
		}
	}
	return rec, nil
}

// Save prunes rec and replaces the stored record in a single transaction.
func (ps *PostgresStore) Save(ctx context.Context, rec Record) error {
	rec = Prune(rec, ps.now(), ps.loc, ps.policy)

	byType, err := json.Marshal(rec.LastByType)
	if err != nil {
		return fmt.Errorf("encode last_by_type: %w", err)
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// returns sql.ErrTxDone after Commit
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_history`); err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}
	for _, e := range rec.Posts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_history (identity_key, post_type, posted_at) VALUES ($1, $2, $3)`,
			e.Key, string(e.Type), e.PostedAt,
		); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_post_counts`); err != nil {
		return fmt.Errorf("clear daily counts: %w", err)
	}
	days := make([]string, 0, len(rec.DailyCount))
	for day := range rec.DailyCount {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_post_counts (day, post_count) VALUES ($1, $2)`,
			day, rec.DailyCount[day],
		); err != nil {
			return fmt.Errorf("insert daily count: %w", err)
		}
	}

	var lastPost any
	if rec.LastPostAt != nil {
		lastPost = *rec.LastPostAt
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history_meta (id, last_post_at, last_by_type)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			last_post_at = EXCLUDED.last_post_at,
			last_by_type = EXCLUDED.last_by_type
	`, lastPost, string(byType)); err != nil {
		return fmt.Errorf("upsert history meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	ps.logger.DebugContext(ctx, "history saved to database", "posts", len(rec.Posts))
	return nil
}
