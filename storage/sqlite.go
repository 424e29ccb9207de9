package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dealsweep/models"
)

// Store keeps the tool's operational state in SQLite: auth tokens, the
// captured site token and per-run bookkeeping. Lead data never lands here;
// the export file is the only lead output.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auth_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_walked INTEGER DEFAULT 0,
		rows_found INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON scrape_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

const (
	keyJWT       = "jwt_token"
	keySiteToken = "site_token"
	keyUserInfo  = "user_info"
)

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO auth_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	return err
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM auth_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) delete(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec(`DELETE FROM auth_state WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return nil
}

// SaveSession persists the backend JWT and the user it belongs to.
func (s *Store) SaveSession(jwt string, user *models.User) error {
	if err := s.set(keyJWT, jwt); err != nil {
		return err
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return s.set(keyUserInfo, string(data))
	}
	return nil
}

// JWT returns the stored session token, empty when logged out.
func (s *Store) JWT() (string, error) {
	return s.get(keyJWT)
}

func (s *Store) User() (*models.User, error) {
	raw, err := s.get(keyUserInfo)
	if err != nil || raw == "" {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ClearSession drops the JWT and user info, e.g. on logout or a failed
// verification.
func (s *Store) ClearSession() error {
	return s.delete(keyJWT, keyUserInfo)
}

// SaveSiteToken persists the token captured from the leads site.
func (s *Store) SaveSiteToken(token string) error {
	return s.set(keySiteToken, token)
}

func (s *Store) SiteToken() (string, error) {
	return s.get(keySiteToken)
}

func (s *Store) CreateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_runs (id, started_at, status, pages_walked, rows_found)
		VALUES (?, ?, ?, 0, 0)`,
		run.ID, run.StartedAt, run.Status)
	return err
}

func (s *Store) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, pages_walked = ?, rows_found = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesWalked, run.RowsFound, run.Error, run.ID)
	return err
}

// LastRun returns the most recent run, or nil when none exist yet.
func (s *Store) LastRun() (*models.ScrapeRun, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, finished_at, status, pages_walked, rows_found, COALESCE(error, '')
		FROM scrape_runs ORDER BY started_at DESC LIMIT 1`)

	var run models.ScrapeRun
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Status, &run.PagesWalked, &run.RowsFound, &run.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

// RecentRuns lists up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, status, pages_walked, rows_found, COALESCE(error, '')
		FROM scrape_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var run models.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.Status,
			&run.PagesWalked, &run.RowsFound, &run.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ResetAuthState clears everything auth-related, site token included.
func (s *Store) ResetAuthState() error {
	if _, err := s.db.Exec(`DELETE FROM auth_state`); err != nil {
		return fmt.Errorf("clear auth_state: %w", err)
	}
	return nil
}
