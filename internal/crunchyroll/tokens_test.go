package crunchyroll

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dblume/crunchyroll-activity-feed/internal/session"
)

// memStore keeps the session in memory and counts saves.
type memStore struct {
	sess  *session.AccountSession
	saves int
}

func (s *memStore) Load(ctx context.Context) (*session.AccountSession, error) {
	if s.sess == nil {
		return session.Bootstrap(), nil
	}
	cp := *s.sess
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, sess *session.AccountSession) error {
	cp := *sess
	s.sess = &cp
	s.saves++
	return nil
}

func (s *memStore) Close() error { return nil }

// countingTransport counts round trips before delegating.
type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	if t.next == nil {
		return nil, errors.New("unexpected network call")
	}
	return t.next.RoundTrip(req)
}

func testAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch r.PostForm.Get("grant_type") {
		case "password":
			if r.PostForm.Get("password") != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error": "invalid_grant"}`)
				return
			}
			fmt.Fprint(w, `{
				"access_token": "access-1",
				"refresh_token": "refresh-1",
				"token_type": "Bearer",
				"account_id": "acct-42"
			}`)
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error": "invalid_grant"}`)
				return
			}
			fmt.Fprint(w, `{
				"access_token": "access-2",
				"refresh_token": "refresh-2",
				"token_type": "Bearer"
			}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code": "bad_grant", "message": "unsupported grant type"}`)
		}
	})

	mux.HandleFunc("GET /index/v2", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"code": "auth.obsolete", "message": "token is not active"}`)
			return
		}
		fmt.Fprint(w, `{
			"cms": {
				"bucket": "/US/cr",
				"policy": "policy-1",
				"signature": "sig-1",
				"key_pair_id": "kp-1",
				"expires": "2030-01-01T00:00:00Z"
			}
		}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T, srv *httptest.Server, store session.Store) *Manager {
	t.Helper()
	client := NewClient()
	client.AuthBase = srv.URL
	client.ContentBase = srv.URL

	m, err := NewManager(context.Background(), store, client, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestLoginMergesAndPersistsBundle(t *testing.T) {
	srv := testAPI(t)
	store := &memStore{}
	m := newTestManager(t, srv, store)

	if m.IsLoggedIn() {
		t.Fatal("fresh manager should not be logged in")
	}

	if err := m.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !m.IsLoggedIn() {
		t.Error("manager should be logged in after Login")
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}

	got := store.sess
	if got.AccountID != "acct-42" {
		t.Errorf("AccountID = %q, want acct-42", got.AccountID)
	}
	want := session.TokenBundle{
		TokenType:    "Bearer",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Bucket:       "/US/cr",
		Policy:       "policy-1",
		Signature:    "sig-1",
		KeyPairID:    "kp-1",
		Expires:      "2030-01-01T00:00:00Z",
	}
	if got.Token != want {
		t.Errorf("persisted bundle:\n got %+v\nwant %+v", got.Token, want)
	}
}

func TestLoginBadPasswordIsAuthError(t *testing.T) {
	srv := testAPI(t)
	m := newTestManager(t, srv, &memStore{})

	err := m.Login(context.Background(), "user@example.com", "wrong")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login error = %v, want *AuthError", err)
	}
	if authErr.Code != "invalid_grant" {
		t.Errorf("Code = %q, want invalid_grant", authErr.Code)
	}
}

func TestLoginTransportFailureIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	m := newTestManager(t, srv, &memStore{})

	err := m.Login(context.Background(), "user@example.com", "hunter2")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login error = %v, want *AuthError", err)
	}
}

func TestAuthorizationWithoutRefreshMakesNoNetworkCall(t *testing.T) {
	store := &memStore{sess: &session.AccountSession{
		AccountID: "acct-42",
		Token:     session.TokenBundle{TokenType: "Bearer", AccessToken: "access-1", RefreshToken: "refresh-1"},
	}}

	transport := &countingTransport{}
	client := NewClient()
	client.Client = &http.Client{Transport: transport}

	m, err := NewManager(context.Background(), store, client, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	auth, err := m.Authorization(context.Background(), false)
	if err != nil {
		t.Fatalf("Authorization: %v", err)
	}
	if transport.calls != 0 {
		t.Errorf("transport calls = %d, want 0", transport.calls)
	}
	if auth.Header() != "Bearer access-1" {
		t.Errorf("Header() = %q, want \"Bearer access-1\"", auth.Header())
	}
}

func TestAuthorizationRefreshRotatesAndPersists(t *testing.T) {
	srv := testAPI(t)
	store := &memStore{sess: &session.AccountSession{
		AccountID: "acct-42",
		Token:     session.TokenBundle{TokenType: "Bearer", AccessToken: "access-1", RefreshToken: "refresh-1", Bucket: "/US/cr"},
	}}
	m := newTestManager(t, srv, store)

	auth, err := m.Authorization(context.Background(), true)
	if err != nil {
		t.Fatalf("Authorization(refresh): %v", err)
	}
	if auth.Header() != "Bearer access-2" {
		t.Errorf("Header() = %q, want \"Bearer access-2\"", auth.Header())
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if store.sess.Token.RefreshToken != "refresh-2" {
		t.Errorf("stored RefreshToken = %q, want refresh-2", store.sess.Token.RefreshToken)
	}
	if store.sess.Token.Bucket != "/US/cr" {
		t.Errorf("refresh must not clobber signing fields, Bucket = %q", store.sess.Token.Bucket)
	}
}

func TestLocale(t *testing.T) {
	tests := []struct {
		bucket string
		want   string
	}{
		{"/US/cr", "en-US"},
		{"/GB/cr", "en-GB"},
		{"/BR/cr", "pt-BR"},
		{"/419/cr", "es-419"},
		{"/ZZ/cr", "en-US"}, // unrecognized region falls back
		{"", "en-US"},
	}
	for _, tc := range tests {
		if got := localeForBucket(tc.bucket); got != tc.want {
			t.Errorf("localeForBucket(%q) = %q, want %q", tc.bucket, got, tc.want)
		}
	}
}
