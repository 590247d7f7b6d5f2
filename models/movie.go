// Package models defines the data structures used throughout the application.
package models

// Movie represents a movie saved in the user's watchlist
type Movie struct {
	ID           int      `json:"id" validate:"required,gt=0"`
	Title        string   `json:"title" validate:"required"`
	PosterPath   *string  `json:"poster_path"`
	Overview     string   `json:"overview,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	VoteAverage  *float64 `json:"vote_average,omitempty" validate:"omitempty,gte=0,lte=10"`
	Watched      bool     `json:"watched"`
	WhereToWatch string   `json:"whereToWatch"`
}

// StreamingLink is a named deep link into a streaming platform's search page
type StreamingLink struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// MovieFromSummary projects a catalog record down to a watchlist entry
func MovieFromSummary(s MovieSummary) Movie {
	movie := Movie{
		ID:          s.ID,
		Title:       s.Title,
		PosterPath:  s.PosterPath,
		Overview:    s.Overview,
		ReleaseDate: s.ReleaseDate,
	}
	if s.VoteAverage != 0 {
		rating := s.VoteAverage
		movie.VoteAverage = &rating
	}
	return movie
}

// Year returns the release year, or 0 when the release date is missing or unparsable
func (m Movie) Year() int {
	return releaseYear(m.ReleaseDate)
}
