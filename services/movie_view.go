package services

import (
	"context"
	"fmt"
	"strings"

	"cinelist/models"

	"github.com/sourcegraph/conc"
)

// MaxCastMembers is the number of cast members shown on a movie page
const MaxCastMembers = 8

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// LoadMovieView fetches details, credits and videos concurrently and composes the detail view.
// Only a failure to fetch the details fails the view; credits and videos are optional.
func LoadMovieView(ctx context.Context, catalog Catalog, id int) (*models.MovieView, error) {
	var (
		wg         conc.WaitGroup
		credits    *models.Credits
		videos     []models.Video
		creditsErr error
		videosErr  error
	)

	wg.Go(func() {
		credits, creditsErr = catalog.Credits(ctx, id)
	})
	wg.Go(func() {
		videos, videosErr = catalog.Videos(ctx, id)
	})

	details, err := catalog.Details(ctx, id)
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to load movie %d: %w", id, err)
	}

	if creditsErr != nil {
		credits = nil
	}
	if videosErr != nil {
		videos = nil
	}

	view := BuildMovieView(*details, credits, videos)
	return &view, nil
}

// BuildMovieView composes the detail view from catalog records; credits and videos may be nil
func BuildMovieView(details models.MovieDetails, credits *models.Credits, videos []models.Video) models.MovieView {
	view := models.MovieView{
		Movie:       details,
		Year:        details.Year(),
		PosterURL:   models.ImageURL(details.PosterPath, models.PosterSize),
		BackdropURL: models.ImageURL(details.BackdropPath, models.BackdropSize),
		Cast:        []models.CastMember{},
	}

	if credits != nil {
		view.Director = FindDirector(credits.Crew)
		cast := credits.Cast
		if len(cast) > MaxCastMembers {
			cast = cast[:MaxCastMembers]
		}
		view.Cast = append(view.Cast, cast...)
	}

	if trailer := FindTrailer(videos); trailer != nil {
		view.Trailer = trailer
		view.TrailerURL = youtubeWatchURL + trailer.Key
	}

	return view
}

// FindDirector returns the first crew member credited as Director
func FindDirector(crew []models.CrewMember) *models.CrewMember {
	for i := range crew {
		if crew[i].Job == "Director" {
			director := crew[i]
			return &director
		}
	}
	return nil
}

// FindTrailer picks the YouTube trailer to show, preferring an official one
func FindTrailer(videos []models.Video) *models.Video {
	var fallback *models.Video
	for i := range videos {
		v := videos[i]
		if v.Type != "Trailer" || !strings.EqualFold(v.Site, "YouTube") {
			continue
		}
		if v.Official {
			return &v
		}
		if fallback == nil {
			fallback = &v
		}
	}
	return fallback
}
