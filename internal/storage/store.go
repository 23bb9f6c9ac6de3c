package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrCardNotFound is returned when a card is not in the index or directory.
var ErrCardNotFound = errors.New("card not found")

// Store defines the card index operations.
type Store interface {
	RecordCard(ctx context.Context, card *Card) error
	GetCard(ctx context.Context, id string) (*Card, error)
	GetCardByFilename(ctx context.Context, filename string) (*Card, error)
	ListCards(ctx context.Context, limit int) ([]Card, error)
	Increment(ctx context.Context, name string) (int64, error)
	CounterValue(ctx context.Context, name string) (int64, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// timeLayout is fixed-width so created_at sorts lexically in UTC.
const timeLayout = "2006-01-02 15:04:05.000000000"

const cardColumns = `filename, id, name, actor, action, achievement, criteria, done_when, created_at`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertCard     *sql.Stmt
	getCard        *sql.Stmt
	getByFilename  *sql.Stmt
	incrementCount *sql.Stmt
	getCount       *sql.Stmt
}

// Open creates the parent directory of path if needed, opens the SQLite
// database there, runs migrations and returns a ready store. The caller
// closes both the store and the *sql.DB.
func Open(ctx context.Context, path string) (*SQLiteStore, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := NewMigrationRunner(db).RunContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	return store, db, nil
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertCard, err = s.db.Prepare(`
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getCard, err = s.db.Prepare(`
		SELECT ` + cardColumns + ` FROM cards WHERE id = ?
		ORDER BY created_at DESC LIMIT 1
	`)
	if err != nil {
		return err
	}

	s.getByFilename, err = s.db.Prepare(`
		SELECT ` + cardColumns + ` FROM cards WHERE filename = ?
	`)
	if err != nil {
		return err
	}

	s.incrementCount, err = s.db.Prepare(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET
			value = counters.value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING value
	`)
	if err != nil {
		return err
	}

	s.getCount, err = s.db.Prepare(`SELECT value FROM counters WHERE name = ?`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// RecordCard stores the structured record for a generated card image.
func (s *SQLiteStore) RecordCard(ctx context.Context, card *Card) error {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}

	_, err := s.insertCard.ExecContext(ctx,
		card.Filename, card.ID, card.Name, card.Actor, card.Action,
		card.Achievement, card.Criteria, card.DoneWhen,
		card.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*Card, error) {
	var c Card
	var createdStr string
	if err := row.Scan(
		&c.Filename, &c.ID, &c.Name, &c.Actor, &c.Action,
		&c.Achievement, &c.Criteria, &c.DoneWhen, &createdStr,
	); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = parseTimestamp(createdStr)
	return &c, nil
}

// GetCard returns the most recent card recorded under id.
func (s *SQLiteStore) GetCard(ctx context.Context, id string) (*Card, error) {
	c, err := scanCard(s.getCard.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s: %w", id, ErrCardNotFound)
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// GetCardByFilename returns the card recorded for an image file.
func (s *SQLiteStore) GetCardByFilename(ctx context.Context, filename string) (*Card, error) {
	c, err := scanCard(s.getByFilename.QueryRowContext(ctx, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s: %w", filename, ErrCardNotFound)
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// ListCards returns recorded cards, newest first. limit <= 0 means all.
func (s *SQLiteStore) ListCards(ctx context.Context, limit int) ([]Card, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY created_at DESC, filename DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// Increment atomically adds one to the named counter, creating it at 1,
// and returns the new value.
func (s *SQLiteStore) Increment(ctx context.Context, name string) (int64, error) {
	var v int64
	if err := s.incrementCount.QueryRowContext(ctx, name).Scan(&v); err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return v, nil
}

// CounterValue returns the named counter, or 0 if it was never incremented.
func (s *SQLiteStore) CounterValue(ctx context.Context, name string) (int64, error) {
	var v int64
	err := s.getCount.QueryRowContext(ctx, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	return v, nil
}

// GetStats returns aggregate statistics about the index.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&stats.TotalCards)
	if err != nil {
		return nil, fmt.Errorf("count cards: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalCards > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(created_at) FROM cards").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("card time range: %w", err)
		}
		stats.OldestCard, _ = parseTimestamp(oldestStr)
		stats.NewestCard, _ = parseTimestamp(newestStr)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM counters ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cv CounterValue
		if err := rows.Scan(&cv.Name, &cv.Value); err != nil {
			return nil, err
		}
		stats.Counters = append(stats.Counters, cv)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertCard, s.getCard, s.getByFilename,
		s.incrementCount, s.getCount,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
