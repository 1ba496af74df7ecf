package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// historyRecord is the upstream record shape. Required fields are pointers
// so absence is detectable; the two supported variants are panel-less
// (Panel nil) and panel-bearing.
type historyRecord struct {
	ID         *string `json:"id"`
	DatePlayed *string `json:"date_played"`
	ParentType *string `json:"parent_type"`
	Panel      *panel  `json:"panel"`
}

type panel struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Type        *string        `json:"type"`
	SlugTitle   *string        `json:"slug_title"`
	Episode     *episodeFields `json:"episode_metadata"`
	Movie       *movieFields   `json:"movie_metadata"`
}

type episodeFields struct {
	DurationMS    *int64   `json:"duration_ms"`
	EpisodeNumber *float64 `json:"episode_number"` // may be null upstream
	SeasonNumber  *int     `json:"season_number"`
	SeriesTitle   *string  `json:"series_title"`
}

type movieFields struct {
	DurationMS *int64 `json:"duration_ms"`
}

// Normalize converts one raw history record into a Viewing. The upstream
// schema is heterogeneous and evolving, so any required field missing is an
// error; callers drop the record and keep going.
func Normalize(raw json.RawMessage) (Viewing, error) {
	var rec historyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Viewing{}, fmt.Errorf("decode record: %w", err)
	}
	if rec.ID == nil {
		return Viewing{}, fmt.Errorf("record has no id")
	}
	if rec.DatePlayed == nil {
		return Viewing{}, fmt.Errorf("record %s has no date_played", *rec.ID)
	}
	played, err := parseDatePlayed(*rec.DatePlayed)
	if err != nil {
		return Viewing{}, fmt.Errorf("record %s: parse date_played: %w", *rec.ID, err)
	}
	ts := played.Unix()

	if rec.Panel == nil {
		// Minimally described item: the id doubles as the title.
		if rec.ParentType == nil {
			return Viewing{}, fmt.Errorf("record %s has neither panel nor parent_type", *rec.ID)
		}
		kind := KindMovie
		if *rec.ParentType == "series" {
			kind = KindEpisode
		}
		return Viewing{
			Timestamp: ts,
			ID:        *rec.ID,
			Show:      Title{Name: *rec.ID, Kind: kind},
		}, nil
	}

	p := rec.Panel
	if p.Title == nil || p.Description == nil || p.Type == nil || p.SlugTitle == nil {
		return Viewing{}, fmt.Errorf("record %s: panel is missing required fields", *rec.ID)
	}

	show := Title{
		Name:        *p.Title,
		Description: *p.Description,
		Kind:        Kind(*p.Type),
		Slug:        *p.SlugTitle,
	}

	switch show.Kind {
	case KindEpisode:
		m := p.Episode
		if m == nil || m.DurationMS == nil || m.SeasonNumber == nil || m.SeriesTitle == nil {
			return Viewing{}, fmt.Errorf("record %s: incomplete episode_metadata", *rec.ID)
		}
		show.DurationMS = *m.DurationMS
		show.Season = *m.SeasonNumber
		show.Series = *m.SeriesTitle
		if m.EpisodeNumber != nil {
			show.Episode = int(*m.EpisodeNumber)
		}
	case KindMovie:
		m := p.Movie
		if m == nil || m.DurationMS == nil {
			return Viewing{}, fmt.Errorf("record %s: incomplete movie_metadata", *rec.ID)
		}
		show.DurationMS = *m.DurationMS
	}

	return Viewing{Timestamp: ts, ID: *rec.ID, Show: show}, nil
}

// datePlayedLayouts covers the offset spellings the upstream has been seen
// to emit: RFC 3339 proper and offsets without the colon ("+0000").
var datePlayedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

func parseDatePlayed(s string) (time.Time, error) {
	var err error
	for _, layout := range datePlayedLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// NormalizeAll converts a batch, logging and skipping records that fail. A
// malformed record never fails the batch.
func NormalizeAll(raw []json.RawMessage, log zerolog.Logger) []Viewing {
	viewings := make([]Viewing, 0, len(raw))
	for _, r := range raw {
		v, err := Normalize(r)
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed history record")
			continue
		}
		viewings = append(viewings, v)
	}
	return viewings
}
