// Package services provides the catalog client and the watchlist store.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"cinelist/logger"
	"cinelist/metrics"
	"cinelist/models"

	"github.com/avast/retry-go/v4"
	"github.com/go-playground/validator/v10"
)

// DefaultTMDBBaseURL is the public TMDB v3 API root
const DefaultTMDBBaseURL = "https://api.themoviedb.org/3"

var (
	// ErrNotFound is returned when the catalog has no record for the requested id
	ErrNotFound = errors.New("catalog: not found")
	// ErrMalformedResponse is returned when a catalog payload cannot be decoded or fails validation
	ErrMalformedResponse = errors.New("catalog: malformed response")
)

// StatusError is returned for unexpected non-2xx catalog responses
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDB API returned status %d for %s", e.StatusCode, e.Endpoint)
}

// Catalog is the read-only movie catalog used by the HTTP layer
type Catalog interface {
	Trending(ctx context.Context) ([]models.MovieSummary, error)
	Search(ctx context.Context, query string) ([]models.MovieSummary, error)
	Details(ctx context.Context, id int) (*models.MovieDetails, error)
	Credits(ctx context.Context, id int) (*models.Credits, error)
	Videos(ctx context.Context, id int) ([]models.Video, error)
	Similar(ctx context.Context, id int) ([]models.MovieSummary, error)
}

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	baseURL       string
	token         string
	client        *http.Client
	retryAttempts uint
	retryDelay    time.Duration
	validate      *validator.Validate
	metrics       *metrics.CatalogMetrics
	logger        *logger.Logger
}

// TMDBOption customizes a TMDBService
type TMDBOption func(*TMDBService)

// WithBaseURL points the client at a different API root
func WithBaseURL(baseURL string) TMDBOption {
	return func(t *TMDBService) {
		t.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) TMDBOption {
	return func(t *TMDBService) {
		t.client = client
	}
}

// WithRetryAttempts sets the total number of attempts for retryable failures.
// One attempt means no retry.
func WithRetryAttempts(attempts uint, delay time.Duration) TMDBOption {
	return func(t *TMDBService) {
		if attempts == 0 {
			attempts = 1
		}
		t.retryAttempts = attempts
		t.retryDelay = delay
	}
}

// WithCatalogMetrics records request metrics
func WithCatalogMetrics(m *metrics.CatalogMetrics) TMDBOption {
	return func(t *TMDBService) {
		t.metrics = m
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *logger.Logger) TMDBOption {
	return func(t *TMDBService) {
		t.logger = l
	}
}

// NewTMDBService creates a new TMDB service instance authenticated with a read access token
func NewTMDBService(token string, opts ...TMDBOption) *TMDBService {
	t := &TMDBService{
		baseURL: DefaultTMDBBaseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryAttempts: 1,
		retryDelay:    200 * time.Millisecond,
		validate:      newValidator(),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

type movieListResponse struct {
	Results []models.MovieSummary `json:"results" validate:"required,dive"`
}

type videoListResponse struct {
	Results []models.Video `json:"results" validate:"required,dive"`
}

// Trending fetches this week's trending movies
func (t *TMDBService) Trending(ctx context.Context) ([]models.MovieSummary, error) {
	var resp movieListResponse
	if err := t.get(ctx, "trending", "/trending/movie/week", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Search finds movies whose title matches query
func (t *TMDBService) Search(ctx context.Context, query string) ([]models.MovieSummary, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp movieListResponse
	if err := t.get(ctx, "search", "/search/movie", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Details fetches the full record for one movie
func (t *TMDBService) Details(ctx context.Context, id int) (*models.MovieDetails, error) {
	var details models.MovieDetails
	if err := t.get(ctx, "details", fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Credits fetches cast and crew for one movie
func (t *TMDBService) Credits(ctx context.Context, id int) (*models.Credits, error) {
	var credits models.Credits
	if err := t.get(ctx, "credits", fmt.Sprintf("/movie/%d/credits", id), nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// Videos fetches trailers, teasers and clips for one movie
func (t *TMDBService) Videos(ctx context.Context, id int) ([]models.Video, error) {
	var resp videoListResponse
	if err := t.get(ctx, "videos", fmt.Sprintf("/movie/%d/videos", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Similar fetches movies similar to the given one
func (t *TMDBService) Similar(ctx context.Context, id int) ([]models.MovieSummary, error) {
	var resp movieListResponse
	if err := t.get(ctx, "similar", fmt.Sprintf("/movie/%d/similar", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// get performs one logical request, retrying transport failures and 5xx responses
func (t *TMDBService) get(ctx context.Context, endpoint, path string, params url.Values, dest any) error {
	requestURL := t.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	start := time.Now()
	err := retry.Do(
		func() error {
			return t.fetch(ctx, endpoint, requestURL, dest)
		},
		retry.Context(ctx),
		retry.Attempts(t.retryAttempts),
		retry.Delay(t.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			t.logger.Warn(t.logger.WithFields(ctx, map[string]any{
				"endpoint": endpoint,
				"attempt":  n + 1,
			}), "retrying catalog request", err)
		}),
	)
	t.metrics.ObserveRequest(endpoint, outcome(err), time.Since(start))
	return err
}

func (t *TMDBService) fetch(ctx context.Context, endpoint, requestURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to build %s request: %w", endpoint, err))
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s from TMDB: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Warn(ctx, "failed to close response body", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrMalformedResponse, endpoint, err)
	}
	if err := t.validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: invalid %s response: %v", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.As(err, &statusErr):
		return "status_error"
	default:
		return "transport_error"
	}
}
