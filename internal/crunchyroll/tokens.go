package crunchyroll

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/dblume/crunchyroll-activity-feed/internal/session"
)

const grantScope = "offline_access"

// Authorization is a bearer credential ready to go on the wire.
type Authorization struct {
	Type  string
	Token string
}

func (a Authorization) Header() string {
	return a.Type + " " + a.Token
}

// Manager owns the session lifecycle: login, refresh, and header
// derivation. It is the only writer of the credential store.
type Manager struct {
	store  session.Store
	client *Client
	sess   *session.AccountSession
	log    zerolog.Logger
}

// NewManager loads the stored session (or the bootstrap default) and wires
// the manager to its store and transport.
func NewManager(ctx context.Context, store session.Store, client *Client, log zerolog.Logger) (*Manager, error) {
	sess, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Manager{store: store, client: client, sess: sess, log: log}, nil
}

// IsLoggedIn reports whether the stored session carries an account id.
func (m *Manager) IsLoggedIn() bool {
	return m.sess.LoggedIn()
}

// AccountID returns the authenticated account id, empty before login.
func (m *Manager) AccountID() string {
	return m.sess.AccountID
}

// tokenResponse is the payload of both the password and refresh grants.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	AccountID    string `json:"account_id"`
}

// indexResponse carries the content-delivery signing fields issued after
// login.
type indexResponse struct {
	CMS struct {
		Bucket    string `json:"bucket"`
		Policy    string `json:"policy"`
		Signature string `json:"signature"`
		KeyPairID string `json:"key_pair_id"`
		Expires   string `json:"expires"`
	} `json:"cms"`
}

// Login exchanges credentials for a token bundle via a password grant, then
// uses the issued token as-is to fetch the account's cms signing fields.
// The merged bundle is persisted before Login returns.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username":   {username},
		"password":   {password},
		"grant_type": {"password"},
		"scope":      {grantScope},
	}

	auth, err := m.Authorization(ctx, false)
	if err != nil {
		return err
	}

	var tok tokenResponse
	if err := m.client.PostForm(ctx, "login (get token)", m.client.AuthBase+"/auth/v1/token", form, auth.Header(), &tok); err != nil {
		return asAuthError("login (get token)", err)
	}

	issued := Authorization{Type: tok.TokenType, Token: tok.AccessToken}
	var idx indexResponse
	if err := m.client.GetJSON(ctx, "login (get cms)", m.client.AuthBase+"/index/v2", nil, issued.Header(), &idx); err != nil {
		return asAuthError("login (get cms)", err)
	}

	m.sess.AccountID = tok.AccountID
	m.sess.Token = session.TokenBundle{
		TokenType:    tok.TokenType,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Bucket:       idx.CMS.Bucket,
		Policy:       idx.CMS.Policy,
		Signature:    idx.CMS.Signature,
		KeyPairID:    idx.CMS.KeyPairID,
		Expires:      idx.CMS.Expires,
	}
	if err := m.store.Save(ctx, m.sess); err != nil {
		return fmt.Errorf("persist session after login: %w", err)
	}

	m.log.Debug().Str("account_id", m.sess.AccountID).Msg("logged in")
	return nil
}

// Authorization derives the bearer header. With refresh=false it is built
// from the stored bundle and never touches the network. With refresh=true a
// refresh-token grant is performed first, authenticated with the current
// non-refreshed header (the token endpoint itself wants a bearer
// credential), and the rotated tokens are persisted before returning.
func (m *Manager) Authorization(ctx context.Context, refresh bool) (Authorization, error) {
	if !refresh {
		return Authorization{Type: m.sess.Token.TokenType, Token: m.sess.Token.AccessToken}, nil
	}

	form := url.Values{
		"refresh_token": {m.sess.Token.RefreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {grantScope},
	}

	current, err := m.Authorization(ctx, false)
	if err != nil {
		return Authorization{}, err
	}

	var tok tokenResponse
	if err := m.client.PostForm(ctx, "refresh token", m.client.AuthBase+"/auth/v1/token", form, current.Header(), &tok); err != nil {
		return Authorization{}, asAuthError("refresh token", err)
	}

	m.sess.Token.TokenType = tok.TokenType
	m.sess.Token.AccessToken = tok.AccessToken
	m.sess.Token.RefreshToken = tok.RefreshToken
	if err := m.store.Save(ctx, m.sess); err != nil {
		return Authorization{}, fmt.Errorf("persist session after refresh: %w", err)
	}

	return Authorization{Type: tok.TokenType, Token: tok.AccessToken}, nil
}

// asAuthError folds transport failures on credential exchanges into the
// auth taxonomy; envelope errors pass through untouched.
func asAuthError(op string, err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return &AuthError{Op: op, Code: fmt.Sprintf("http_%d", httpErr.Status), Message: httpErr.Reason}
	}
	return err
}
