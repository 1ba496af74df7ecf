package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// sessionRowID keys the single mutable row the store owns.
const sessionRowID = "current"

// SQLStore keeps the session in a libsql database, local or remote.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL DEFAULT '',
			token TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Load(ctx context.Context) (*AccountSession, error) {
	query := `SELECT account_id, token FROM sessions WHERE id = ?`

	var accountID, tokenJSON string
	err := s.db.QueryRowContext(ctx, query, sessionRowID).Scan(&accountID, &tokenJSON)
	if err == sql.ErrNoRows {
		return Bootstrap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	var token TokenBundle
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &AccountSession{AccountID: accountID, Token: token}, nil
}

// Save upserts the single session row. The row replacement is atomic, so a
// concurrent reader sees either the old bundle or the new one.
func (s *SQLStore) Save(ctx context.Context, sess *AccountSession) error {
	tokenJSON, err := json.Marshal(sess.Token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	query := `
		INSERT INTO sessions (id, account_id, token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			token = excluded.token,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		sessionRowID,
		sess.AccountID,
		string(tokenJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}
