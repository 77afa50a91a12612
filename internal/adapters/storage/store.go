package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// DefaultDBName is the fixed database filename inside both the data and
// backup directories.
const DefaultDBName = "Data.db"

// Config locates the store on disk. Every field is explicit per
// instance; nothing is shared at package level.
type Config struct {
	DataDir   string
	BackupDir string
	DBName    string
}

func (c Config) dbName() string {
	if c.DBName == "" {
		return DefaultDBName
	}
	return c.DBName
}

// Store owns the single-file SQLite database holding the cve and tweet
// tables. It keeps at most one live connection; db == nil means
// disconnected. Inserts run inside one long-lived transaction that
// CommitAndClose finalizes, so a run aborted mid-post leaves no
// half-written pair behind. All methods are serialized behind one mutex
// since SQLite is not set up here for concurrent writers.
type Store struct {
	cfg    Config
	dbPath string
	log    *slog.Logger

	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

// New builds a Store handle without opening a connection. When the
// database file is absent it first runs the backup rollback protocol:
// a backup directory holding the same filename replaces the data
// directory wholesale (a move, not a copy). With neither present the
// first connection starts a fresh empty database.
func New(cfg Config, log *slog.Logger) (*Store, error) {
	s := &Store{
		cfg:    cfg,
		dbPath: filepath.Join(cfg.DataDir, cfg.dbName()),
		log:    log.With("component", "storage"),
	}

	if _, err := os.Stat(s.dbPath); os.IsNotExist(err) {
		if err := s.rollbackBackup(); err != nil {
			return nil, fmt.Errorf("backup rollback: %w", err)
		}
	}

	return s, nil
}

// rollbackBackup restores the data directory from the backup directory.
// A missing backup is not an error; the store simply starts fresh.
func (s *Store) rollbackBackup() error {
	backupFile := filepath.Join(s.cfg.BackupDir, s.cfg.dbName())
	if _, err := os.Stat(backupFile); err != nil {
		if os.IsNotExist(err) {
			s.log.Debug("no backup to roll back, starting fresh", "backup_dir", s.cfg.BackupDir)
			return nil
		}
		return err
	}

	s.log.Info("rolling back data directory from backup",
		"data_dir", s.cfg.DataDir, "backup_dir", s.cfg.BackupDir)

	if _, err := os.Stat(s.cfg.DataDir); err == nil {
		if err := os.RemoveAll(s.cfg.DataDir); err != nil {
			return fmt.Errorf("remove stale data dir: %w", err)
		}
	}

	// Move, not copy: the backup directory ceases to exist afterwards.
	if err := os.Rename(s.cfg.BackupDir, s.cfg.DataDir); err != nil {
		return fmt.Errorf("move backup into place: %w", err)
	}
	return nil
}

// connect opens the connection if none is live. The data directory is
// created on demand so a fresh deployment needs no setup step.
func (s *Store) connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(s.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("open database: %w", err)
	}

	s.db = db
	return nil
}

// disconnect closes the connection and resets the handle to the
// not-connected state.
func (s *Store) disconnect() {
	if s.db != nil {
		s.db.Close()
	}
	s.db = nil
	s.tx = nil
}

const cveSchema = `
	CREATE TABLE IF NOT EXISTS cve (
		cve_id TEXT,
		description TEXT,
		score TEXT,
		cvss_version TEXT,
		cvss_vector TEXT,
		twitter_id TEXT
	)`

const tweetSchema = `
	CREATE TABLE IF NOT EXISTS tweet (
		cve_id TEXT,
		id TEXT,
		link TEXT,
		name TEXT,
		content TEXT,
		retweet INTEGER,
		"like" INTEGER,
		date_and_time TEXT,
		keyword TEXT,
		FOREIGN KEY(cve_id) REFERENCES cve(cve_id)
	)`

// EnsureSchema creates both tables if they do not exist, then closes
// the connection again. Calling it repeatedly is safe and never leaks
// a connection across calls.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		return err
	}
	defer s.disconnect()

	for _, stmt := range []string{cveSchema, tweetSchema} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// begin lazily opens the run transaction, connecting first if needed.
func (s *Store) begin(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		s.tx = tx
	}
	return nil
}

// InsertCVE appends one enrichment record. Duplicate cve_id values
// across posts are appended, not merged; the aggregation consumer
// counts mentions.
func (s *Store) InsertCVE(ctx context.Context, rec domain.EnrichmentRecord, tweetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx); err != nil {
		return err
	}

	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO cve (cve_id, description, score, cvss_version, cvss_vector, twitter_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Description, rec.Score, rec.CVSSVersion, rec.CVSSVector, tweetID,
	)
	if err != nil {
		return fmt.Errorf("insert cve %s: %w", rec.ID, err)
	}
	return nil
}

// InsertTweet appends the originating post row for an already-inserted
// cve row.
func (s *Store) InsertTweet(ctx context.Context, row domain.TweetRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx); err != nil {
		return err
	}

	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO tweet (cve_id, id, link, name, content, retweet, "like", date_and_time, keyword)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.CVEID, row.TweetID, row.Link, row.Author, row.Content,
		row.Retweets, row.Likes, row.CreatedAt.UTC().Format("2006-01-02 15:04:05"), row.Keyword,
	)
	if err != nil {
		return fmt.Errorf("insert tweet %s: %w", row.TweetID, err)
	}
	return nil
}

// CommitAndClose commits the live transaction, if any, and releases the
// connection. The store can be reused afterwards; the next insert
// reconnects and opens a new transaction.
func (s *Store) CommitAndClose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.disconnect()

	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	return nil
}

// CountRows reports the row counts of both tables. Used by the status
// command and by tests; opens and closes its own short connection when
// the store is idle.
func (s *Store) CountRows(ctx context.Context) (cves, tweets int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opened := s.db == nil
	if err := s.connect(ctx); err != nil {
		return 0, 0, err
	}
	if opened {
		defer s.disconnect()
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cve").Scan(&cves); err != nil {
		return 0, 0, fmt.Errorf("count cve rows: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tweet").Scan(&tweets); err != nil {
		return 0, 0, fmt.Errorf("count tweet rows: %w", err)
	}
	return cves, tweets, nil
}
