package crunchyroll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultAuthBase    = "https://beta-api.crunchyroll.com"
	defaultContentBase = "https://beta.crunchyroll.com"

	userAgent = "Crunchyroll/3.10.0 Android/6.0 okhttp/4.9.1"
)

// Client is the raw transport against the Crunchyroll API. Base URLs are
// fields so tests can point it at a local server.
type Client struct {
	AuthBase    string
	ContentBase string
	Client      *http.Client
}

func NewClient() *Client {
	return &Client{
		AuthBase:    defaultAuthBase,
		ContentBase: defaultContentBase,
		Client:      http.DefaultClient,
	}
}

// PostForm issues a form-encoded POST and decodes the JSON response into
// out. The body is checked for an error envelope before the transport
// status: grant failures come back as 4xx with a diagnostic envelope, and
// the envelope is the more useful signal.
func (c *Client) PostForm(ctx context.Context, op, rawURL string, form url.Values, authorization string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if apiErr := checkEnvelope(op, body); apiErr != nil {
		return apiErr
	}
	if resp.StatusCode >= 300 {
		return &HTTPError{Op: op, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}
	return json.Unmarshal(body, out)
}

// GetJSON issues a GET with a bearer header and decodes the JSON response
// into out. Transport status is checked first, then the envelope, matching
// how the history endpoint reports failure.
func (c *Client) GetJSON(ctx context.Context, op, rawURL string, query url.Values, authorization string, out any) error {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &HTTPError{Op: op, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if apiErr := checkEnvelope(op, body); apiErr != nil {
		return apiErr
	}
	return json.Unmarshal(body, out)
}
