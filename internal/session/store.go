package session

import (
	"context"
	"strings"
)

// Store persists the current account session. Load never fails just because
// no session exists yet; it returns Bootstrap() in that case.
type Store interface {
	Load(ctx context.Context) (*AccountSession, error)
	Save(ctx context.Context, sess *AccountSession) error
	Close() error
}

// supported DSN formats:
//
//	Local sqlite: ":memory:" (tests)
//	TursoDB: "libsql://[db-name]-[org].turso.io?authToken=..."
//	Anything else: path to a JSON session file, e.g. "session.json"
func NewStore(dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "libsql://"), dsn == ":memory:":
		return NewSQLStore(dsn)
	default:
		return NewFileStore(dsn), nil
	}
}
