package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dblume/crunchyroll-activity-feed/internal/config"
	"github.com/dblume/crunchyroll-activity-feed/internal/crunchyroll"
	"github.com/dblume/crunchyroll-activity-feed/internal/feed"
	"github.com/dblume/crunchyroll-activity-feed/internal/logging"
	"github.com/dblume/crunchyroll-activity-feed/internal/session"
)

// app holds the wired collaborators every subcommand needs.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store session.Store
	mgr   *crunchyroll.Manager
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.Log.Level, "crunchyroll-feed")

	store, err := session.NewStore(cfg.Session.DSN)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	mgr, err := crunchyroll.NewManager(ctx, store, crunchyroll.NewClient(), log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, store: store, mgr: mgr}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing credential store")
	}
}

func (a *app) feedConfig() feed.Config {
	return feed.Config{
		Filename:   a.cfg.Feed.Filename,
		Href:       a.cfg.Feed.Href,
		Title:      a.cfg.Feed.Title,
		Link:       a.cfg.Feed.Link,
		SkipSeries: a.cfg.Feed.SkipSeries,
	}
}

// ensureLoggedIn performs a password login unless the stored session
// already carries an account.
func (a *app) ensureLoggedIn(ctx context.Context) error {
	if a.mgr.IsLoggedIn() {
		return nil
	}
	if a.cfg.Auth.Username == "" || a.cfg.Auth.Password == "" {
		return fmt.Errorf("not logged in and no credentials configured (set CRUNCHYROLL_USERNAME and CRUNCHYROLL_PASSWORD)")
	}
	if err := a.mgr.Login(ctx, a.cfg.Auth.Username, a.cfg.Auth.Password); err != nil {
		a.log.Error().Err(err).Msg("login failed")
		return err
	}
	a.log.Debug().Msg("logged in")
	return nil
}
