package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handlers struct {
	svc     FeedService
	cache   *Cache
	log     zerolog.Logger
	buildMu sync.Mutex
}

func NewHandlers(svc FeedService, cache *Cache, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc:   svc,
		cache: cache,
		log:   log,
	}
}

// RSS serves the rendered feed, rebuilding it when the cache has expired.
// Builds are serialized: the manager behind the service rotates and
// persists tokens, so concurrent builds would post stale refresh tokens
// and race over the stored bundle.
func (h *Handlers) RSS(c *gin.Context) {
	if b, etag, ok := h.cache.Get(); ok {
		h.write(c, b, etag)
		return
	}

	h.buildMu.Lock()
	defer h.buildMu.Unlock()

	// another request may have rebuilt while we waited
	if b, etag, ok := h.cache.Get(); ok {
		h.write(c, b, etag)
		return
	}

	b, err := h.svc.Build(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("feed build failed")
		c.String(http.StatusBadGateway, err.Error())
		return
	}

	etag := h.cache.Set(b)
	h.write(c, b, etag)
}

func (h *Handlers) write(c *gin.Context, b []byte, etag string) {
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml", b)
}
