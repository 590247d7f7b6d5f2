package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"cinelist/logger"
	"cinelist/metrics"
	"cinelist/models"
	"cinelist/storage"
)

// DefaultWatchlistKey is the storage slot holding the watchlist
const DefaultWatchlistKey = "user_watchlist"

// WatchlistStore owns the persisted list of saved movies.
// Every mutation re-reads the whole list and writes it back under a single lock.
type WatchlistStore struct {
	storage storage.Storage
	key     string
	logger  *logger.Logger
	metrics *metrics.WatchlistMetrics

	mu sync.Mutex
}

// WatchlistOption customizes a WatchlistStore
type WatchlistOption func(*WatchlistStore)

// WithWatchlistKey overrides the storage slot name
func WithWatchlistKey(key string) WatchlistOption {
	return func(w *WatchlistStore) {
		if key != "" {
			w.key = key
		}
	}
}

// WithWatchlistLogger sets the logger used to report unreadable data
func WithWatchlistLogger(l *logger.Logger) WatchlistOption {
	return func(w *WatchlistStore) {
		w.logger = l
	}
}

// WithWatchlistMetrics records operation metrics
func WithWatchlistMetrics(m *metrics.WatchlistMetrics) WatchlistOption {
	return func(w *WatchlistStore) {
		w.metrics = m
	}
}

// NewWatchlistStore creates a store over the given storage
func NewWatchlistStore(s storage.Storage, opts ...WatchlistOption) *WatchlistStore {
	w := &WatchlistStore{
		storage: s,
		key:     DefaultWatchlistKey,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// List returns the saved movies in insertion order.
// A missing, unreadable or corrupt slot yields an empty list.
func (w *WatchlistStore) List(ctx context.Context) []models.Movie {
	w.mu.Lock()
	defer w.mu.Unlock()

	movies := w.load(ctx)
	w.metrics.Observe("list", "ok")
	return movies
}

// Contains reports whether a movie with id is saved
func (w *WatchlistStore) Contains(ctx context.Context, id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, m := range w.load(ctx) {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Add appends movie unless an entry with the same id already exists.
// The stored copy always starts unwatched with no where-to-watch note.
func (w *WatchlistStore) Add(ctx context.Context, movie models.Movie) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	movies := w.load(ctx)
	for _, m := range movies {
		if m.ID == movie.ID {
			w.metrics.Observe("add", "noop")
			return nil
		}
	}

	movie.Watched = false
	movie.WhereToWatch = ""
	movies = append(movies, movie)

	return w.save(ctx, "add", movies)
}

// Remove deletes the movie with id. Removing an absent id is a no-op.
func (w *WatchlistStore) Remove(ctx context.Context, id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	movies := w.load(ctx)
	kept := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID != id {
			kept = append(kept, m)
		}
	}

	return w.save(ctx, "remove", kept)
}

// ToggleWatched flips the watched flag of the movie with id
func (w *WatchlistStore) ToggleWatched(ctx context.Context, id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	movies := w.load(ctx)
	for i := range movies {
		if movies[i].ID == id {
			movies[i].Watched = !movies[i].Watched
		}
	}

	return w.save(ctx, "toggle_watched", movies)
}

func (w *WatchlistStore) load(ctx context.Context) []models.Movie {
	ctx = w.logger.WithField(ctx, "key", w.key)

	raw, ok, err := w.storage.Get(ctx, w.key)
	if err != nil {
		w.logger.Warn(ctx, "failed to read watchlist, treating as empty", err)
		w.metrics.Observe("read", "error")
		return []models.Movie{}
	}
	if !ok {
		return []models.Movie{}
	}

	var movies []models.Movie
	if err := json.Unmarshal([]byte(raw), &movies); err != nil {
		w.logger.Warn(ctx, "stored watchlist is corrupt, treating as empty", err)
		w.metrics.Observe("read", "corrupt")
		return []models.Movie{}
	}
	if movies == nil {
		return []models.Movie{}
	}
	return movies
}

func (w *WatchlistStore) save(ctx context.Context, op string, movies []models.Movie) error {
	data, err := json.Marshal(movies)
	if err != nil {
		w.metrics.Observe(op, "error")
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}
	if err := w.storage.Set(ctx, w.key, string(data)); err != nil {
		w.metrics.Observe(op, "error")
		return fmt.Errorf("failed to save watchlist: %w", err)
	}
	w.metrics.Observe(op, "ok")
	w.metrics.SetSize(len(movies))
	return nil
}

type streamingProvider struct {
	name   string
	prefix string
}

var streamingProviders = []streamingProvider{
	{name: "Netflix", prefix: "https://www.netflix.com/search?q="},
	{name: "Prime Video", prefix: "https://www.primevideo.com/region/eu/search/ref=atv_nb_sug?ie=UTF8&phrase="},
	{name: "Stremio", prefix: "https://web.strem.io/#/search?query="},
}

// WhereToWatch returns search links for title on the supported streaming platforms
func WhereToWatch(title string) []models.StreamingLink {
	escaped := url.QueryEscape(title)
	links := make([]models.StreamingLink, 0, len(streamingProviders))
	for _, p := range streamingProviders {
		links = append(links, models.StreamingLink{Name: p.name, Link: p.prefix + escaped})
	}
	return links
}

// BuildWatchlistView applies filter to movies and decorates each entry for display
func BuildWatchlistView(movies []models.Movie, filter models.WatchlistFilter) models.WatchlistView {
	filtered := filter.Apply(movies)
	entries := make([]models.WatchlistEntry, 0, len(filtered))
	for _, m := range filtered {
		entries = append(entries, models.WatchlistEntry{
			Movie:     m,
			Year:      m.Year(),
			PosterURL: models.ImageURL(m.PosterPath, models.PosterThumbSize),
			Links:     WhereToWatch(m.Title),
		})
	}
	return models.WatchlistView{
		Filter: filter,
		Total:  len(movies),
		Count:  len(filtered),
		Label:  filter.Label(len(filtered)),
		Movies: entries,
	}
}
