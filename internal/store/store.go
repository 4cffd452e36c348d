// Package store caches mapping-service legs in SQL so repeated tours over the
// same stops do not pay for the same matrix elements twice.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, single file, the
// default) and "mysql" (shared deployments). Statements use `?` placeholders
// and REPLACE INTO, which both dialects accept.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/paulmach/orb"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ErrDriver is returned by Open for an unsupported driver name.
var ErrDriver = errors.New("store: unsupported driver")

// lookupChunk bounds the IN (...) list of one Get query.
const lookupChunk = 400

// Key identifies a directed leg between two coordinates for one travel mode.
// Coordinates are rounded to 6 decimals (~0.1 m).
type Key struct {
	From, To orb.Point
	Mode     string
}

// NewKey rounds from and to and returns the Key.
func NewKey(from, to orb.Point, mode string) Key {
	return Key{From: round6(from), To: round6(to), Mode: mode}
}

// String is the primary-key spelling: `lat,lon>lat,lon|MODE`.
func (k Key) String() string {
	return fmt.Sprintf("%.6f,%.6f>%.6f,%.6f|%s", k.From.Lat(), k.From.Lon(), k.To.Lat(), k.To.Lon(), k.Mode)
}

func round6(p orb.Point) orb.Point {
	return orb.Point{math.Round(p[0]*1e6) / 1e6, math.Round(p[1]*1e6) / 1e6}
}

// Leg is one cached matrix element.
type Leg struct {
	Key Key
	// Routable is false when the service reported no route.
	Routable        bool
	DistanceMeters  float64
	DurationSeconds float64
	FetchedAt       time.Time
}

// Store is a leg cache backed by database/sql. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
	now    func() time.Time
}

// Open connects, pings and migrates. ttl ≤ 0 keeps legs forever.
func Open(ctx context.Context, driverName, dsn string, ttl time.Duration) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driverName {
	case DriverSQLite:
		db, err = sql.Open(DriverSQLite, sqliteDSN(dsn))
		if err == nil {
			db.SetMaxOpenConns(1) // one writer; WAL serves readers
		}
	case DriverMySQL:
		var cfg *mysql.Config
		if cfg, err = mysql.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		var conn driver.Connector
		if conn, err = mysql.NewConnector(cfg); err != nil {
			return nil, fmt.Errorf("mysql connector: %w", err)
		}
		db = sql.OpenDB(conn)
	default:
		return nil, fmt.Errorf("%q: %w", driverName, ErrDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: db, driver: driverName, ttl: ttl, now: time.Now}
	if err = s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return s, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// migrate brings the schema to the current version. Every step tolerates a
// partial earlier run: on sqlite a version runs in one transaction, on mysql
// (where DDL commits implicitly) an existing index is accepted.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	version, err := s.version(ctx)
	if err != nil {
		return err
	}

	if version < 1 {
		index := `CREATE INDEX IF NOT EXISTS idx_legs_fetched ON legs (fetched_at)`
		if s.driver == DriverMySQL {
			index = `CREATE INDEX idx_legs_fetched ON legs (fetched_at)`
		}
		if err = s.apply(ctx, 1,
			`CREATE TABLE IF NOT EXISTS legs (
				leg_key    VARCHAR(191) NOT NULL PRIMARY KEY,
				routable   INTEGER NOT NULL,
				distance_m DOUBLE NOT NULL,
				duration_s DOUBLE NOT NULL,
				fetched_at BIGINT NOT NULL
			)`,
			index,
		); err != nil {
			return err
		}
	}

	return nil
}

// version returns the applied schema version, 0 for a fresh database.
func (s *Store) version(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	return v, nil
}

// apply runs the statements of one version and records it.
func (s *Store) apply(ctx context.Context, version int, stmts ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration v%d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts = append(stmts, fmt.Sprintf(`REPLACE INTO schema_version (version) VALUES (%d)`, version))
	for _, q := range stmts {
		if _, err = tx.ExecContext(ctx, q); err != nil && !duplicateIndex(err) {
			return fmt.Errorf("migration v%d: %w", version, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("migration v%d: %w", version, err)
	}

	return nil
}

// duplicateIndex reports mysql's "Duplicate key name" (1061), left by a run
// that created the index but died before recording the version.
func duplicateIndex(err error) bool {
	var merr *mysql.MySQLError
	return errors.As(err, &merr) && merr.Number == 1061
}

// Get returns the fresh legs among keys. Missing and expired keys are absent
// from the result.
func (s *Store) Get(ctx context.Context, keys []Key) (map[Key]Leg, error) {
	out := make(map[Key]Leg, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	byID := make(map[string]Key, len(keys))
	for _, k := range keys {
		byID[k.String()] = k
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	var cutoff int64
	if s.ttl > 0 {
		cutoff = s.now().Add(-s.ttl).Unix()
	}
	for lo := 0; lo < len(ids); lo += lookupChunk {
		hi := min(lo+lookupChunk, len(ids))
		if err := s.getChunk(ctx, ids[lo:hi], cutoff, byID, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *Store) getChunk(ctx context.Context, ids []string, cutoff int64, byID map[string]Key, out map[Key]Leg) error {
	args := make([]any, 0, len(ids)+1)
	args = append(args, cutoff)
	for _, id := range ids {
		args = append(args, id)
	}
	q := `SELECT leg_key, routable, distance_m, duration_s, fetched_at FROM legs WHERE fetched_at >= ? AND leg_key IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       string
			routable int
			leg      Leg
			fetched  int64
		)
		if err = rows.Scan(&id, &routable, &leg.DistanceMeters, &leg.DurationSeconds, &fetched); err != nil {
			return fmt.Errorf("scan leg: %w", err)
		}
		leg.Key = byID[id]
		leg.Routable = routable != 0
		leg.FetchedAt = time.Unix(fetched, 0)
		out[leg.Key] = leg
	}

	return rows.Err()
}

// Put upserts legs in one transaction. Zero FetchedAt is stamped with now.
func (s *Store) Put(ctx context.Context, legs []Leg) error {
	if len(legs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `REPLACE INTO legs (leg_key, routable, distance_m, duration_s, fetched_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, l := range legs {
		at := l.FetchedAt
		if at.IsZero() {
			at = now
		}
		routable := 0
		if l.Routable {
			routable = 1
		}
		if _, err = stmt.ExecContext(ctx, l.Key.String(), routable, l.DistanceMeters, l.DurationSeconds, at.Unix()); err != nil {
			return fmt.Errorf("put %s: %w", l.Key, err)
		}
	}

	return tx.Commit()
}

// Purge deletes expired legs and returns how many were removed. With no TTL
// it does nothing.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM legs WHERE fetched_at < ?`, s.now().Add(-s.ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("purge legs: %w", err)
	}

	return res.RowsAffected()
}
