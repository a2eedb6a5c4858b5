package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/visitlog/pkg/core/domain"
	"github.com/wadjakorntonsri/visitlog/pkg/metrics"
	"github.com/wadjakorntonsri/visitlog/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

const (
	// DefaultListLimit applies when List is called with a non-positive limit
	DefaultListLimit = 100
	// MaxListLimit caps a single List call
	MaxListLimit = 10000
)

// columns every visits table must carry, in select order
var visitColumns = []string{"id", "address", "user_agent", "referer", "path", "timestamp"}

// SQLiteRepository is the single owner of the visit log handle.
// Writes are exclusive against reads; rows are never updated or deleted.
type SQLiteRepository struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteRepository opens or creates the visit log at dbURL.
// Opening an initialized database leaves its rows untouched.
func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, &domain.StorageInitError{Path: dbURL, Err: err}
	}

	// One connection serializes every statement against the file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &domain.StorageInitError{Path: dbURL, Err: err}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, &domain.StorageInitError{Path: dbURL, Err: err}
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		referer TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	return checkSchema(db)
}

// checkSchema rejects a pre-existing visits table that lacks a required column
func checkSchema(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(visits)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	found := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		found[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range visitColumns {
		if !found[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("incompatible visits table: missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}

// Close releases the database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Record stamps the visit with the current UTC second and appends it.
// On success visit.ID and visit.Timestamp are set.
func (r *SQLiteRepository) Record(ctx context.Context, visit *domain.Visit) error {
	defer observe("record", time.Now())

	if visit.Address == "" {
		visit.Address = domain.UnknownAddress
	}
	ts := r.now().UTC().Truncate(time.Second)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageWriteError{Err: err}
	}
	defer tx.Rollback()

	query := `INSERT INTO visits (address, user_agent, referer, path, timestamp) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, query, visit.Address, visit.UserAgent, visit.Referer, visit.Path, ts.Format(domain.TimestampLayout))
	if err != nil {
		return &domain.StorageWriteError{Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StorageWriteError{Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageWriteError{Err: err}
	}

	visit.ID = id
	visit.Timestamp = ts
	return nil
}

// List returns at most limit visits, newest first
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]domain.Visit, error) {
	defer observe("list", time.Now())

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `SELECT id, address, user_agent, referer, path, timestamp FROM visits ORDER BY id DESC LIMIT ?`
	visits, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, &domain.StorageReadError{Op: "list", Err: err}
	}
	return visits, nil
}

// ExportAll returns every visit, oldest first. There is no pagination.
func (r *SQLiteRepository) ExportAll(ctx context.Context) ([]domain.Visit, error) {
	defer observe("export", time.Now())

	query := `SELECT id, address, user_agent, referer, path, timestamp FROM visits ORDER BY id ASC`
	visits, err := r.query(ctx, query)
	if err != nil {
		return nil, &domain.StorageReadError{Op: "export", Err: err}
	}
	return visits, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := []domain.Visit{}
	for rows.Next() {
		var v domain.Visit
		var ts string
		if err := rows.Scan(&v.ID, &v.Address, &v.UserAgent, &v.Referer, &v.Path, &ts); err != nil {
			return nil, err
		}
		if v.Timestamp, err = time.Parse(domain.TimestampLayout, ts); err != nil {
			return nil, fmt.Errorf("visit %d: bad timestamp %q: %w", v.ID, ts, err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visits, nil
}

// Stats aggregates the log: totals, top referers and paths, last 30 days
func (r *SQLiteRepository) Stats(ctx context.Context) (*domain.VisitStats, error) {
	defer observe("stats", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.VisitStats{
		Referrers:   make(map[string]int64),
		Paths:       make(map[string]int64),
		DailyVisits: []domain.DailyVisit{},
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&stats.TotalVisits); err != nil {
		return nil, &domain.StorageReadError{Op: "stats", Err: err}
	}

	err := r.groupCounts(ctx, `SELECT referer, COUNT(*) as c FROM visits GROUP BY referer ORDER BY c DESC LIMIT 10`, func(key string, count int64) {
		if key == "" {
			key = "Direct"
		}
		stats.Referrers[key] = count
	})
	if err != nil {
		return nil, &domain.StorageReadError{Op: "stats", Err: err}
	}

	err = r.groupCounts(ctx, `SELECT path, COUNT(*) as c FROM visits GROUP BY path ORDER BY c DESC LIMIT 10`, func(key string, count int64) {
		stats.Paths[key] = count
	})
	if err != nil {
		return nil, &domain.StorageReadError{Op: "stats", Err: err}
	}

	// timestamps are ISO-8601 text, so the first 10 characters are the day
	err = r.groupCounts(ctx, `
		SELECT substr(timestamp, 1, 10) as date, COUNT(*)
		FROM visits
		GROUP BY date
		ORDER BY date DESC
		LIMIT 30`, func(key string, count int64) {
		stats.DailyVisits = append(stats.DailyVisits, domain.DailyVisit{Date: key, Count: count})
	})
	if err != nil {
		return nil, &domain.StorageReadError{Op: "stats", Err: err}
	}

	return stats, nil
}

// groupCounts drains a (key, count) query. Rows must be closed before the
// next statement since the pool holds a single connection.
func (r *SQLiteRepository) groupCounts(ctx context.Context, query string, fn func(string, int64)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		fn(key, count)
	}
	return rows.Err()
}

func observe(op string, start time.Time) {
	metrics.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Ensure interface compliance
var _ ports.VisitRepository = (*SQLiteRepository)(nil)
