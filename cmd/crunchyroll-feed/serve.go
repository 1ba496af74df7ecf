package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dblume/crunchyroll-activity-feed/internal/api"
)

const handlerTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed over HTTP with a TTL cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.ensureLoggedIn(ctx); err != nil {
				return err
			}

			svc := api.HistoryFeedService{
				Manager:  app.mgr,
				Feed:     app.feedConfig(),
				PageSize: app.cfg.Feed.PageSize,
				Log:      app.log,
			}
			cache := api.NewCache(app.cfg.Server.CacheTTL.Duration)
			handlers := api.NewHandlers(svc, cache, app.log)

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
				Handler:           routes(handlers),
				ReadHeaderTimeout: 5 * time.Second,
			}

			app.log.Info().Int("port", app.cfg.Server.Port).Msg("listening")
			return server.ListenAndServe()
		},
	}
}

func routes(handlers *api.Handlers) http.Handler {
	g := gin.Default()

	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	g.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK. RSS at /crunchyroll.xml\n")
	})

	g.GET("/crunchyroll.xml", withTimeout(handlerTimeout, handlers.RSS))

	return g
}

func withTimeout(d time.Duration, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		fn(c)
	}
}
