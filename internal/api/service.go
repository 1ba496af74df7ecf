package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dblume/crunchyroll-activity-feed/internal/crunchyroll"
	"github.com/dblume/crunchyroll-activity-feed/internal/feed"
)

// FeedService builds a complete feed document.
type FeedService interface {
	Build(ctx context.Context) ([]byte, error)
}

// HistoryFeedService renders the account's watch-history as RSS:
// forced token refresh, history fetch, normalize, render.
type HistoryFeedService struct {
	Manager  *crunchyroll.Manager
	Feed     feed.Config
	PageSize int
	Log      zerolog.Logger
}

func (s HistoryFeedService) Build(ctx context.Context) ([]byte, error) {
	items, err := crunchyroll.FetchHistory(ctx, s.Manager, s.PageSize)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		s.Log.Warn().Msg("no history returned from Crunchyroll API")
	}

	viewings := feed.NormalizeAll(items, s.Log)
	return feed.Render(viewings, s.Feed)
}
