package models

import (
	"errors"
	"fmt"
	"strings"
)

// WatchlistFilter selects which watchlist entries are shown
type WatchlistFilter string

// Watchlist filter constants
const (
	FilterAll       WatchlistFilter = "all"
	FilterWatched   WatchlistFilter = "watched"
	FilterUnwatched WatchlistFilter = "unwatched"
)

// ErrInvalidFilter is returned when a filter name is not recognised
var ErrInvalidFilter = errors.New("invalid watchlist filter")

// ParseWatchlistFilter parses a filter name; blank input means FilterAll
func ParseWatchlistFilter(value string) (WatchlistFilter, error) {
	switch WatchlistFilter(strings.ToLower(strings.TrimSpace(value))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterWatched:
		return FilterWatched, nil
	case FilterUnwatched:
		return FilterUnwatched, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFilter, value)
}

// Apply returns the movies matching the filter, keeping their order
func (f WatchlistFilter) Apply(movies []Movie) []Movie {
	filtered := make([]Movie, 0, len(movies))
	for _, movie := range movies {
		switch f {
		case FilterWatched:
			if !movie.Watched {
				continue
			}
		case FilterUnwatched:
			if movie.Watched {
				continue
			}
		}
		filtered = append(filtered, movie)
	}
	return filtered
}

// Label describes a filtered count, e.g. "1 movie" or "3 movies (watched)"
func (f WatchlistFilter) Label(count int) string {
	label := fmt.Sprintf("%d movie", count)
	if count != 1 {
		label += "s"
	}
	if f != FilterAll && f != "" {
		label += fmt.Sprintf(" (%s)", f)
	}
	return label
}

// WatchlistEntry is a watchlist movie enriched for display
type WatchlistEntry struct {
	Movie
	Year      int             `json:"year,omitempty"`
	PosterURL string          `json:"poster_url,omitempty"`
	Links     []StreamingLink `json:"where_to_watch"`
}

// WatchlistView is the filtered watchlist returned to clients
type WatchlistView struct {
	Filter WatchlistFilter  `json:"filter"`
	Total  int              `json:"total"`
	Count  int              `json:"count"`
	Label  string           `json:"label"`
	Movies []WatchlistEntry `json:"movies"`
}
