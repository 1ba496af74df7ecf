package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OutputError is a failed feed write. Fatal to the run, never retried.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write feed %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel channelXML `xml:"channel"`
}

type channelXML struct {
	SelfLink    atomLink  `xml:"atom:link"`
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	PubDate     string    `xml:"pubDate"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []itemXML `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type itemXML struct {
	Title       string  `xml:"title"`
	PubDate     string  `xml:"pubDate"`
	Link        string  `xml:"link"`
	GUID        guidXML `xml:"guid"`
	Description cdata   `xml:"description"`
}

// guid carries the viewing timestamp: unique per entry but not a permalink.
type guidXML struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

const pubDateFormat = time.RFC1123Z

// Render produces the RSS document for the given viewings: stable-sorted
// newest first, minus any series on the skip list. Zero viewings still
// yields a well-formed document.
func Render(viewings []Viewing, cfg Config) ([]byte, error) {
	ordered := make([]Viewing, len(viewings))
	copy(ordered, viewings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp > ordered[j].Timestamp
	})

	items := make([]itemXML, 0, len(ordered))
	for _, v := range ordered {
		if skipSeries(v.Show.Series, cfg.SkipSeries) {
			continue
		}
		items = append(items, itemXML{
			Title:   itemTitle(v),
			PubDate: time.Unix(v.Timestamp, 0).UTC().Format(pubDateFormat),
			Link:    fmt.Sprintf("https://crunchyroll.com/watch/%s/%s", v.ID, v.Show.Slug),
			GUID: guidXML{
				IsPermaLink: "false",
				Value:       strconv.FormatInt(v.Timestamp, 10),
			},
			Description: cdata{Value: v.Show.Description},
		})
	}

	doc := rssXML{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: channelXML{
			SelfLink: atomLink{
				Href: cfg.Href,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Title:       cfg.Title,
			Link:        cfg.Link,
			PubDate:     time.Now().UTC().Format(pubDateFormat),
			Description: cfg.Title,
			Language:    "en-us",
			Items:       items,
		},
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), b...), nil
}

// Write renders and writes the feed to its configured path.
func Write(viewings []Viewing, cfg Config) error {
	b, err := Render(viewings, cfg)
	if err != nil {
		return &OutputError{Path: cfg.Filename, Err: err}
	}
	if err := os.WriteFile(cfg.Filename, b, 0o644); err != nil {
		return &OutputError{Path: cfg.Filename, Err: err}
	}
	return nil
}

func skipSeries(series string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(series, p) {
			return true
		}
	}
	return false
}

// itemTitle formats the entry title by kind:
//
//	"{series} S{season}:E{episode} {title} ({m}m)"  episode with a series
//	"{title} (an episode)"                          episode without one
//	"{title} (a {kind}){dur}"                       everything else
func itemTitle(v Viewing) string {
	dur := ""
	if v.Show.DurationMS != 0 {
		dur = fmt.Sprintf(" (%dm)", v.Show.DurationMS/1000/60)
	}

	if v.Show.Kind == KindEpisode {
		if v.Show.Series == "" {
			return fmt.Sprintf("%s (an episode)", v.Show.Name)
		}
		return fmt.Sprintf("%s S%d:E%d %s%s", v.Show.Series, v.Show.Season, v.Show.Episode, v.Show.Name, dur)
	}
	return fmt.Sprintf("%s (a %s)%s", v.Show.Name, v.Show.Kind, dur)
}
