package crunchyroll

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// historyEnvelope wraps the watch-history payload.
type historyEnvelope struct {
	Items []json.RawMessage `json:"items"`
}

// FetchHistory returns the account's raw watch-history records, newest
// first as the API sends them. The history endpoint wants a freshly issued
// token, so a refresh is forced on every call. Records come back verbatim;
// validation belongs to the normalizer.
func FetchHistory(ctx context.Context, m *Manager, pageSize int) ([]json.RawMessage, error) {
	auth, err := m.Authorization(ctx, true)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"locale":    {m.Locale()},
		"page_size": {strconv.Itoa(pageSize)},
	}
	endpoint := fmt.Sprintf("%s/content/v1/watch-history/%s", m.client.ContentBase, m.AccountID())

	var env historyEnvelope
	if err := m.client.GetJSON(ctx, "fetch history", endpoint, params, auth.Header(), &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}
