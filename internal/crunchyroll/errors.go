package crunchyroll

import (
	"encoding/json"
	"fmt"
)

// AuthError is an API-level failure: the endpoint answered, but the body
// carries an error envelope (or a credential exchange failed). Not retried
// within a run.
type AuthError struct {
	Op      string
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: code=%s, %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: code=%s", e.Op, e.Code)
}

// HTTPError is a non-success transport status with no usable envelope.
type HTTPError struct {
	Op     string
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d %s", e.Op, e.Status, e.Reason)
}

// envelope is the error shape shared by every endpoint: either
// {"error": code} or {"code": .., "message": ..}. Its presence in an
// otherwise parseable body is fatal to the caller.
type envelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// checkEnvelope returns an AuthError if body carries an API error envelope,
// nil otherwise. Unparseable bodies are not envelopes.
func checkEnvelope(op string, body []byte) *AuthError {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Error != "" {
		if env.Error == "invalid_grant" {
			return &AuthError{Op: op, Code: env.Error, Message: "invalid login information"}
		}
		return &AuthError{Op: op, Code: env.Error}
	}
	if env.Code != "" && env.Message != "" {
		return &AuthError{Op: op, Code: env.Code, Message: env.Message}
	}
	return nil
}
