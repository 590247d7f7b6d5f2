package models

// MovieView is the composed detail view of a single movie
type MovieView struct {
	Movie       MovieDetails `json:"movie"`
	Year        int          `json:"year,omitempty"`
	PosterURL   string       `json:"poster_url,omitempty"`
	BackdropURL string       `json:"backdrop_url,omitempty"`
	Director    *CrewMember  `json:"director,omitempty"`
	Cast        []CastMember `json:"cast"`
	Trailer     *Video       `json:"trailer,omitempty"`
	TrailerURL  string       `json:"trailer_url,omitempty"`
	InWatchlist bool         `json:"in_watchlist"`
}

// MovieList is a list of catalog movies returned by browse endpoints
type MovieList struct {
	Title     string         `json:"title"`
	Query     string         `json:"query,omitempty"`
	Movies    []MovieSummary `json:"movies"`
	NoResults bool           `json:"no_results"`
}
