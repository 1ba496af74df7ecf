package session

// bootstrapToken is the public client credential Crunchyroll's mobile app
// ships with. A store with no prior session hands this out so the first
// password grant can authenticate.
const bootstrapToken = "aHJobzlxM2F3dnNrMjJ1LXRzNWE6cHROOURteXRBU2Z6QjZvbXVsSzh6cUxzYTczVE1TY1k="

// TokenBundle is the mutable credential record. The signing fields
// (Bucket/Policy/Signature/KeyPairID/Expires) are opaque pass-through data
// for the content-delivery layer. TokenType and AccessToken are always set
// together.
type TokenBundle struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Bucket       string `json:"bucket,omitempty"`
	Policy       string `json:"policy,omitempty"`
	Signature    string `json:"signature,omitempty"`
	KeyPairID    string `json:"key_pair_id,omitempty"`
	Expires      string `json:"expires,omitempty"`
}

// AccountSession is the persisted session. AccountID is empty until the
// first successful login and immutable afterwards; only Token is replaced
// on refresh.
type AccountSession struct {
	AccountID string      `json:"account_id,omitempty"`
	Token     TokenBundle `json:"token"`
}

// LoggedIn reports whether this session belongs to an authenticated account.
func (s *AccountSession) LoggedIn() bool {
	return s.AccountID != ""
}

// Bootstrap returns the default session used before any login: the shared
// public Basic credential and no account.
func Bootstrap() *AccountSession {
	return &AccountSession{
		Token: TokenBundle{
			TokenType:   "Basic",
			AccessToken: bootstrapToken,
		},
	}
}
