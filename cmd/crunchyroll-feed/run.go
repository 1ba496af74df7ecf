package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dblume/crunchyroll-activity-feed/internal/crunchyroll"
	"github.com/dblume/crunchyroll-activity-feed/internal/feed"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch the watch history and write the feed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.ensureLoggedIn(ctx); err != nil {
				return err
			}

			items, err := crunchyroll.FetchHistory(ctx, app.mgr, app.cfg.Feed.PageSize)
			if err != nil {
				app.log.Error().Err(err).Msg("history fetch failed")
				return err
			}
			if len(items) == 0 {
				app.log.Warn().Msg("no history returned from Crunchyroll API")
			}

			viewings := feed.NormalizeAll(items, app.log)

			if err := feed.Write(viewings, app.feedConfig()); err != nil {
				app.log.Error().Err(err).Msg("feed write failed")
				return err
			}

			app.log.Info().
				Int("viewings", len(viewings)).
				Dur("elapsed", time.Since(start)).
				Str("path", app.cfg.Feed.Filename).
				Msg("feed written")
			return nil
		},
	}
}
