package models

import (
	"fmt"
	"strconv"
)

// Image sizes used when building TMDB image URLs
const (
	ImageBaseURL     = "https://image.tmdb.org/t/p/"
	PosterSize       = "w500"
	PosterThumbSize  = "w92"
	BackdropSize     = "w1280"
	ProfileImageSize = "w185"
)

// MovieSummary is the movie shape returned by list endpoints (trending, search, similar)
type MovieSummary struct {
	ID          int     `json:"id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required"`
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average" validate:"gte=0,lte=10"`
}

// MovieDetails is the full movie record returned by the details endpoint
type MovieDetails struct {
	MovieSummary
	BackdropPath        *string             `json:"backdrop_path"`
	Genres              []Genre             `json:"genres" validate:"omitempty,dive"`
	Runtime             int                 `json:"runtime,omitempty" validate:"gte=0"`
	Tagline             string              `json:"tagline,omitempty"`
	Status              string              `json:"status,omitempty"`
	Budget              int64               `json:"budget,omitempty" validate:"gte=0"`
	Revenue             int64               `json:"revenue,omitempty" validate:"gte=0"`
	VoteCount           int                 `json:"vote_count,omitempty" validate:"gte=0"`
	ProductionCompanies []ProductionCompany `json:"production_companies,omitempty" validate:"omitempty,dive"`
}

// Genre represents a movie genre
type Genre struct {
	ID   int    `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ProductionCompany represents a studio credited on a movie
type ProductionCompany struct {
	ID       int     `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	LogoPath *string `json:"logo_path"`
}

// Credits contains cast and crew information
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast" validate:"required,dive"`
	Crew []CrewMember `json:"crew" validate:"required,dive"`
}

// CastMember represents an actor credited on a movie
type CastMember struct {
	ID          int     `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

// CrewMember represents a crew member in a movie
type CrewMember struct {
	ID          int     `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Job         string  `json:"job"`
	Department  string  `json:"department"`
	ProfilePath *string `json:"profile_path"`
}

// Video represents a video (trailer, teaser, clip) attached to a movie
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key" validate:"required"`
	Name     string `json:"name"`
	Site     string `json:"site" validate:"required"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// ImageURL joins a TMDB relative image path with the image CDN base for the given size.
// An absent path yields an empty string.
func ImageURL(path *string, size string) string {
	if path == nil || *path == "" {
		return ""
	}
	return fmt.Sprintf("%s%s%s", ImageBaseURL, size, *path)
}

// Year returns the release year, or 0 when the release date is missing or unparsable
func (s MovieSummary) Year() int {
	return releaseYear(s.ReleaseDate)
}

func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
