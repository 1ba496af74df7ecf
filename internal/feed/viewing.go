package feed

// Kind classifies what a history entry points at.
type Kind string

const (
	KindEpisode Kind = "episode"
	KindMovie   Kind = "movie"
)

// Title is the normalized metadata for a watched piece of content.
// Read-only once constructed.
type Title struct {
	Name        string
	Description string
	Kind        Kind
	DurationMS  int64
	Episode     int
	Season      int
	Series      string
	Slug        string
}

// Viewing is one watch-history entry: what was watched and when. The
// renderer consumes these ordered newest first.
type Viewing struct {
	Timestamp int64 // unix seconds
	ID        string
	Show      Title
}

// Config describes the feed document to produce.
type Config struct {
	Filename   string   // output path
	Href       string   // self-link URL
	Title      string   // channel title
	Link       string   // channel link
	SkipSeries []string // series-name prefixes to drop
}
