package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cinelist/models"
	"cinelist/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const clientIDHeader = "X-Client-Id"

type errorResponse struct {
	Error string `json:"error"`
}

// routes builds the HTTP router
func (app *App) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID(app.logger), requestLogging(app.logger))

	// Health check endpoint
	r.HandleFunc("/health", healthHandler).Methods("GET")
	if app.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Catalog endpoints
	api.HandleFunc("/movies", app.browseMoviesHandler).Methods("GET")
	api.HandleFunc("/trending", app.trendingHandler).Methods("GET")
	api.HandleFunc("/trending/refresh", app.refreshTrendingHandler).Methods("POST")
	api.HandleFunc("/search", app.searchHandler).Methods("GET")
	api.HandleFunc("/movies/{id}", app.movieDetailsHandler).Methods("GET")
	api.HandleFunc("/movies/{id}/similar", app.similarMoviesHandler).Methods("GET")
	api.HandleFunc("/movies/{id}/watchlist", app.addMovieFromCatalogHandler).Methods("POST")

	// Watchlist endpoints
	api.HandleFunc("/watchlist", app.getWatchlistHandler).Methods("GET")
	api.HandleFunc("/watchlist", app.addToWatchlistHandler).Methods("POST")
	api.HandleFunc("/watchlist/{id}", app.removeFromWatchlistHandler).Methods("DELETE")
	api.HandleFunc("/watchlist/{id}/toggle-watched", app.toggleWatchedHandler).Methods("POST")
	api.HandleFunc("/where-to-watch", whereToWatchHandler).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "page not found"})
}

// browseMoviesHandler shows trending movies for a blank query and search results otherwise
func (app *App) browseMoviesHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		app.trendingHandler(w, r)
		return
	}
	app.runSearch(w, r, query)
}

func (app *App) trendingHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := app.catalog.Trending(r.Context())
	if err != nil {
		app.writeCatalogError(r.Context(), w, "Error fetching trending movies", err)
		return
	}
	writeJSON(w, http.StatusOK, newMovieList("Trending This Week", "", movies))
}

// refreshTrendingHandler queues an immediate refresh of the cached trending list
func (app *App) refreshTrendingHandler(w http.ResponseWriter, _ *http.Request) {
	if app.jobManager == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "catalog cache is disabled"})
		return
	}
	app.jobManager.TriggerTrendingRefresh()
	w.WriteHeader(http.StatusAccepted)
}

func (app *App) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}
	app.runSearch(w, r, query)
}

func (app *App) runSearch(w http.ResponseWriter, r *http.Request, query string) {
	movies, err := app.searches.Search(r.Context(), r.Header.Get(clientIDHeader), query)
	if err != nil {
		app.writeCatalogError(r.Context(), w, "Error searching movies", err)
		return
	}
	writeJSON(w, http.StatusOK, newMovieList(fmt.Sprintf("Search Results for %q", query), query, movies))
}

func (app *App) movieDetailsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	view, err := services.LoadMovieView(r.Context(), app.catalog, id)
	if err != nil {
		app.writeCatalogError(r.Context(), w, "Error fetching movie details", err)
		return
	}
	view.InWatchlist = app.watchlist.Contains(r.Context(), id)

	writeJSON(w, http.StatusOK, view)
}

func (app *App) similarMoviesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	movies, err := app.catalog.Similar(r.Context(), id)
	if err != nil {
		app.writeCatalogError(r.Context(), w, "Error fetching similar movies", err)
		return
	}
	writeJSON(w, http.StatusOK, newMovieList("Similar Movies", "", movies))
}

// addMovieFromCatalogHandler fetches a movie from the catalog and saves it to the watchlist
func (app *App) addMovieFromCatalogHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	details, err := app.catalog.Details(r.Context(), id)
	if err != nil {
		app.writeCatalogError(r.Context(), w, "Error fetching movie from catalog", err)
		return
	}

	if err := app.watchlist.Add(r.Context(), models.MovieFromSummary(details.MovieSummary)); err != nil {
		app.writeStoreError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, services.BuildWatchlistView(app.watchlist.List(r.Context()), models.FilterAll))
}

func (app *App) getWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseWatchlistFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, services.BuildWatchlistView(app.watchlist.List(r.Context()), filter))
}

func (app *App) addToWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	var movie models.Movie

	// Decode the request body
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := app.validate.Struct(movie); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return
	}

	if err := app.watchlist.Add(r.Context(), movie); err != nil {
		app.writeStoreError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, services.BuildWatchlistView(app.watchlist.List(r.Context()), models.FilterAll))
}

func (app *App) removeFromWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	if err := app.watchlist.Remove(r.Context(), id); err != nil {
		app.writeStoreError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) toggleWatchedHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	if err := app.watchlist.ToggleWatched(r.Context(), id); err != nil {
		app.writeStoreError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, services.BuildWatchlistView(app.watchlist.List(r.Context()), models.FilterAll))
}

func whereToWatchHandler(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}
	writeJSON(w, http.StatusOK, services.WhereToWatch(title))
}

func newMovieList(title, query string, movies []models.MovieSummary) models.MovieList {
	if movies == nil {
		movies = []models.MovieSummary{}
	}
	return models.MovieList{
		Title:     title,
		Query:     query,
		Movies:    movies,
		NoResults: len(movies) == 0,
	}
}

func parseMovieID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid movie ID"})
		return 0, false
	}
	return id, true
}

// catalogStatus maps catalog client errors to HTTP status codes
func catalogStatus(err error) int {
	var statusErr *services.StatusError
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSearchSuperseded):
		return http.StatusConflict
	case errors.Is(err, services.ErrMalformedResponse), errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func (app *App) writeCatalogError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status := catalogStatus(err)
	switch status {
	case http.StatusNotFound:
		writeJSON(w, status, errorResponse{Error: "movie not found"})
		return
	case http.StatusConflict:
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	app.logger.Error(ctx, msg, err)
	writeJSON(w, status, errorResponse{Error: "movie catalog unavailable"})
}

func (app *App) writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	app.logger.Error(ctx, "Error saving watchlist", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save watchlist"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid movie"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid movie: " + strings.Join(fields, ", ")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
