package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func fullSession() *AccountSession {
	return &AccountSession{
		AccountID: "acct-123",
		Token: TokenBundle{
			TokenType:    "Bearer",
			AccessToken:  "access-abc",
			RefreshToken: "refresh-def",
			Bucket:       "/US/cr",
			Policy:       "policy-1",
			Signature:    "sig-1",
			KeyPairID:    "kp-1",
			Expires:      "2030-01-01T00:00:00Z",
		},
	}
}

func TestFileStoreLoadMissingReturnsBootstrap(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	sess, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.LoggedIn() {
		t.Error("bootstrap session should not be logged in")
	}
	if sess.Token.TokenType != "Basic" || sess.Token.AccessToken == "" {
		t.Errorf("bootstrap token = %+v, want Basic public credential", sess.Token)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	want := fullSession()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	first := fullSession()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := fullSession()
	second.Token.RefreshToken = "refresh-new"
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token.RefreshToken != "refresh-new" {
		t.Errorf("RefreshToken = %q, want refresh-new", got.Token.RefreshToken)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "session.json"))

	if err := store.Save(context.Background(), fullSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "session.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only session.json", names)
	}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store, err := NewSQLStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.LoggedIn() {
		t.Error("empty store should yield a bootstrap session")
	}

	want := fullSession()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// second save exercises the upsert path
	want.Token.AccessToken = "access-rotated"
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save (upsert): %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestNewStoreSelectsBackend(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore(file): %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("NewStore(path) = %T, want *FileStore", store)
	}
	store.Close()

	store, err = NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore(:memory:): %v", err)
	}
	if _, ok := store.(*SQLStore); !ok {
		t.Errorf("NewStore(:memory:) = %T, want *SQLStore", store)
	}
	store.Close()
}
