// Package registry persists the flat user table used for personalization
// and broadcasts.
package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type User struct {
	ID        int64
	Username  string
	FirstName string
	FullName  string
	Position  string
	Status    string
}

// DisplayName picks the best available name for prompt personalization.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.FirstName
}

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active'
	)`)
	if err != nil {
		return fmt.Errorf("init users schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddUser registers a user on first contact. Re-registering is a no-op so
// /start never clobbers an enriched profile.
func (s *Store) AddUser(id int64, username, firstName, fullName string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO users (user_id, username, first_name, full_name) VALUES (?, ?, ?, ?)`,
		id, username, firstName, fullName,
	)
	if err != nil {
		return fmt.Errorf("add user %d: %w", id, err)
	}
	return nil
}

// GetUser returns nil without error when the user is unknown.
func (s *Store) GetUser(id int64) (*User, error) {
	row := s.db.QueryRow(
		`SELECT user_id, username, first_name, full_name, position, status FROM users WHERE user_id = ?`,
		id,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.FullName, &u.Position, &u.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// AllUserIDs lists every registered user, for broadcast fan-out.
func (s *Store) AllUserIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT user_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) UpdateProfile(id int64, fullName, position string) error {
	_, err := s.db.Exec(
		`UPDATE users SET full_name = ?, position = ? WHERE user_id = ?`,
		fullName, position, id,
	)
	if err != nil {
		return fmt.Errorf("update profile %d: %w", id, err)
	}
	return nil
}
