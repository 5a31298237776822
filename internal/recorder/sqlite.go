package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"PixelSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the reward ledger to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the ledger command can read while accounts are writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS iterations (
			id          TEXT PRIMARY KEY,
			session     TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_iterations_session_ts ON iterations(session, started_at)`,

		`CREATE TABLE IF NOT EXISTS claims (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			iteration_id  TEXT NOT NULL,
			session       TEXT NOT NULL,
			amount        INTEGER NOT NULL,
			balance_after INTEGER NOT NULL,
			claimed_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_session_ts ON claims(session, claimed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordIteration(it *Iteration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO iterations
		(id, session, started_at, finished_at, outcome, error)
		VALUES (?,?,?,?,?,?)`,
		it.ID, it.Session, it.StartedAt.UnixMilli(), it.FinishedAt.UnixMilli(),
		string(it.Outcome), it.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordClaim(c *Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO claims
		(iteration_id, session, amount, balance_after, claimed_at)
		VALUES (?,?,?,?,?)`,
		c.IterationID, c.Session, c.Amount, c.BalanceAfter, c.ClaimedAt.UnixMilli(),
	)
	return err
}

// Totals sums claims and counts failed iterations per account since the given time.
func (r *SQLiteRecorder) Totals(since time.Time) ([]SessionTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := since.UnixMilli()
	rows, err := r.db.Query(`SELECT s.session,
			COALESCE(c.cnt, 0), COALESCE(c.earned, 0),
			COALESCE((SELECT balance_after FROM claims
				WHERE session = s.session ORDER BY claimed_at DESC, id DESC LIMIT 1), 0),
			COALESCE(f.failures, 0)
		FROM (SELECT session FROM claims WHERE claimed_at >= ?
			UNION SELECT session FROM iterations WHERE started_at >= ?) s
		LEFT JOIN (SELECT session, COUNT(*) AS cnt, SUM(amount) AS earned
			FROM claims WHERE claimed_at >= ? GROUP BY session) c ON c.session = s.session
		LEFT JOIN (SELECT session, COUNT(*) AS failures
			FROM iterations WHERE started_at >= ? AND outcome = ? GROUP BY session) f ON f.session = s.session
		ORDER BY s.session`,
		ts, ts, ts, ts, string(model.OutcomeFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	var out []SessionTotal
	for rows.Next() {
		var t SessionTotal
		if err := rows.Scan(&t.Session, &t.Claims, &t.Earned, &t.LastBalance, &t.Failures); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentClaims returns the newest claims first.
func (r *SQLiteRecorder) RecentClaims(limit int) ([]Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT iteration_id, session, amount, balance_after, claimed_at
		FROM claims ORDER BY claimed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var out []Claim
	for rows.Next() {
		var c Claim
		var ts int64
		if err := rows.Scan(&c.IterationID, &c.Session, &c.Amount, &c.BalanceAfter, &ts); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		c.ClaimedAt = time.UnixMilli(ts)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
