package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cinelist/config"
	"cinelist/jobs"
	"cinelist/logger"
	"cinelist/models"
	"cinelist/services"
	"cinelist/storage"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCatalog is an in-memory catalog for handler tests
type stubCatalog struct {
	mu       sync.Mutex
	trending []models.MovieSummary
	search   map[string][]models.MovieSummary
	details  map[int]*models.MovieDetails
	err      error
}

func (s *stubCatalog) Trending(context.Context) ([]models.MovieSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trending, s.err
}

func (s *stubCatalog) Search(_ context.Context, query string) ([]models.MovieSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.search[query], nil
}

func (s *stubCatalog) Details(_ context.Context, id int) (*models.MovieDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.details[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return d, nil
}

func (s *stubCatalog) Credits(_ context.Context, id int) (*models.Credits, error) {
	return &models.Credits{
		ID:   id,
		Cast: []models.CastMember{{ID: 1, Name: "Lead Actor"}},
		Crew: []models.CrewMember{{ID: 2, Name: "The Director", Job: "Director"}},
	}, nil
}

func (s *stubCatalog) Videos(context.Context, int) ([]models.Video, error) {
	return []models.Video{{Key: "xyz", Site: "YouTube", Type: "Trailer", Official: true}}, nil
}

func (s *stubCatalog) Similar(context.Context, int) ([]models.MovieSummary, error) {
	return nil, nil
}

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (brokenStorage) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func setupTestApp(t *testing.T) (*App, *stubCatalog) {
	t.Helper()
	poster := "/inception.jpg"
	catalog := &stubCatalog{
		trending: []models.MovieSummary{{ID: 27205, Title: "Inception", PosterPath: &poster, VoteAverage: 8.4}},
		search: map[string][]models.MovieSummary{
			"alien": {{ID: 348, Title: "Alien"}},
		},
		details: map[int]*models.MovieDetails{
			27205: {MovieSummary: models.MovieSummary{ID: 27205, Title: "Inception", PosterPath: &poster, ReleaseDate: "2010-07-15", VoteAverage: 8.4}},
		},
	}

	app := &App{
		catalog:   catalog,
		searches:  services.NewSearchCoordinator(catalog),
		watchlist: services.NewWatchlistStore(storage.NewMemory()),
		registry:  prometheus.NewRegistry(),
		logger:    logger.Nop(),
		validate:  validator.New(),
	}
	return app, catalog
}

func doRequest(t *testing.T, app *App, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	app, _ := setupTestApp(t)

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}

func TestBrowseMovies_BlankQueryShowsTrending(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/api/v1/movies?query=%20%20", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	list := decodeBody[models.MovieList](t, rr)
	assert.Equal(t, "Trending This Week", list.Title)
	assert.False(t, list.NoResults)
	require.Len(t, list.Movies, 1)
	assert.Equal(t, "Inception", list.Movies[0].Title)
}

func TestBrowseMovies_QuerySearches(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/api/v1/movies?query=alien", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[models.MovieList](t, rr)
	assert.Equal(t, "alien", list.Query)
	assert.Equal(t, "Alien", list.Movies[0].Title)
}

func TestSearch_NoResults(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/api/v1/search?query=zzzz", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[models.MovieList](t, rr)
	assert.True(t, list.NoResults)
	assert.NotNil(t, list.Movies)
	assert.Empty(t, list.Movies)
}

func TestSearch_BlankQueryRejected(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/api/v1/search", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMovieDetails(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/api/v1/movies/27205", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	view := decodeBody[models.MovieView](t, rr)
	assert.Equal(t, "Inception", view.Movie.Title)
	assert.Equal(t, 2010, view.Year)
	assert.Equal(t, "The Director", view.Director.Name)
	assert.Equal(t, "https://www.youtube.com/watch?v=xyz", view.TrailerURL)
	assert.False(t, view.InWatchlist)
}

func TestMovieDetails_Errors(t *testing.T) {
	app, _ := setupTestApp(t)

	assert.Equal(t, http.StatusNotFound, doRequest(t, app, "GET", "/api/v1/movies/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "GET", "/api/v1/movies/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "GET", "/api/v1/movies/-4", nil).Code)
}

func TestCatalogErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"bad status", &services.StatusError{Endpoint: "trending", StatusCode: 500}, http.StatusBadGateway},
		{"malformed", services.ErrMalformedResponse, http.StatusBadGateway},
		{"transport", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, catalog := setupTestApp(t)
			catalog.err = tt.err

			rr := doRequest(t, app, "GET", "/api/v1/trending", nil)
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, "movie catalog unavailable", decodeBody[errorResponse](t, rr).Error)
		})
	}
}

func TestAddMovieFromCatalog(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "POST", "/api/v1/movies/27205/watchlist", nil)
	assert.Equal(t, http.StatusCreated, rr.Code)

	view := decodeBody[models.WatchlistView](t, rr)
	require.Len(t, view.Movies, 1)
	assert.Equal(t, "Inception", view.Movies[0].Title)
	assert.Equal(t, 8.4, *view.Movies[0].VoteAverage)
	assert.Len(t, view.Movies[0].Links, 3)

	details := decodeBody[models.MovieView](t, doRequest(t, app, "GET", "/api/v1/movies/27205", nil))
	assert.True(t, details.InWatchlist)

	assert.Equal(t, http.StatusNotFound, doRequest(t, app, "POST", "/api/v1/movies/99/watchlist", nil).Code)
}

func TestWatchlistLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "POST", "/api/v1/watchlist", []byte(`{"id":1,"title":"A","watched":true,"whereToWatch":"somewhere"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doRequest(t, app, "POST", "/api/v1/watchlist", []byte(`{"id":2,"title":"B"}`))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, app, "POST", "/api/v1/watchlist/1/toggle-watched", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, app, "DELETE", "/api/v1/watchlist/2", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, app, "GET", "/api/v1/watchlist", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	view := decodeBody[models.WatchlistView](t, rr)
	require.Len(t, view.Movies, 1)
	assert.Equal(t, 1, view.Movies[0].ID)
	assert.True(t, view.Movies[0].Watched)
	assert.Equal(t, "", view.Movies[0].WhereToWatch)
	assert.Equal(t, "1 movie", view.Label)

	rr = doRequest(t, app, "GET", "/api/v1/watchlist?filter=unwatched", nil)
	view = decodeBody[models.WatchlistView](t, rr)
	assert.Equal(t, 0, view.Count)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, "0 movies (unwatched)", view.Label)
}

func TestWatchlist_InvalidInput(t *testing.T) {
	app, _ := setupTestApp(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "GET", "/api/v1/watchlist?filter=maybe", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "POST", "/api/v1/watchlist", []byte(`not json`)).Code)

	rr := doRequest(t, app, "POST", "/api/v1/watchlist", []byte(`{"id":0,"title":""}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rr).Error, "invalid movie")

	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "DELETE", "/api/v1/watchlist/x", nil).Code)
}

func TestWatchlist_WriteFailureReturns500(t *testing.T) {
	app, _ := setupTestApp(t)
	app.watchlist = services.NewWatchlistStore(brokenStorage{})

	rr := doRequest(t, app, "POST", "/api/v1/watchlist", []byte(`{"id":1,"title":"A"}`))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "failed to save watchlist", decodeBody[errorResponse](t, rr).Error)
}

func TestWhereToWatchHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/api/v1/where-to-watch?title=Inception", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	links := decodeBody[[]models.StreamingLink](t, rr)
	require.Len(t, links, 3)
	assert.Equal(t, "https://web.strem.io/#/search?query=Inception", links[2].Link)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "GET", "/api/v1/where-to-watch", nil).Code)
}

func TestRefreshTrending_RequiresCache(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "POST", "/api/v1/trending/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRefreshTrending_QueuesJob(t *testing.T) {
	app, catalog := setupTestApp(t)
	cached := services.NewCachedCatalog(catalog, services.CacheOptions{})
	app.catalog = cached
	app.jobManager = jobs.NewJobManager(jobs.NewTrendingRefreshJob(cached, time.Hour, nil), nil)

	rr := doRequest(t, app, "POST", "/api/v1/trending/refresh", nil)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	app.jobManager.Stop()

	catalog.mu.Lock()
	catalog.trending = nil
	catalog.mu.Unlock()

	// The refreshed list is served from the cache
	list := decodeBody[models.MovieList](t, doRequest(t, app, "GET", "/api/v1/trending", nil))
	assert.Len(t, list.Movies, 1)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	app, _ := setupTestApp(t)

	rr := doRequest(t, app, "GET", "/no/such/page", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "page not found", decodeBody[errorResponse](t, rr).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "test"})
	app.registry.MustRegister(counter)
	counter.Inc()

	rr := doRequest(t, app, "GET", "/metrics", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "test_counter_total 1")
}

func TestOpenStorage_Backends(t *testing.T) {
	ctx := context.Background()

	memCfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageMemory}}
	s, closeFn, err := openStorage(ctx, memCfg)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, closeFn())

	sqliteCfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageSQLite, SQLitePath: ":memory:"}}
	s, closeFn, err = openStorage(ctx, sqliteCfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user_watchlist", "[]"))
	assert.NoError(t, closeFn())

	fileCfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageFile, FileDir: t.TempDir()}}
	s, _, err = openStorage(ctx, fileCfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user_watchlist", "[]"))

	_, _, err = openStorage(ctx, &config.Config{Storage: config.StorageConfig{Backend: "tape"}})
	assert.Error(t, err)
}
