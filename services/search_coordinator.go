package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"cinelist/models"
)

// ErrSearchSuperseded is returned when a newer search from the same client replaced this one
var ErrSearchSuperseded = errors.New("search superseded by a newer query")

// Searcher is the part of the catalog the coordinator drives
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.MovieSummary, error)
}

type searchSession struct {
	generation uint64
	cancel     context.CancelFunc
}

// SearchCoordinator makes sure only the latest search per client delivers results.
// Starting a search cancels the client's previous in-flight search.
type SearchCoordinator struct {
	searcher Searcher
	counter  atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*searchSession
}

// NewSearchCoordinator creates a coordinator over searcher
func NewSearchCoordinator(searcher Searcher) *SearchCoordinator {
	return &SearchCoordinator{
		searcher: searcher,
		sessions: make(map[string]*searchSession),
	}
}

// Search runs query for clientID. If another search for the same client starts
// before this one finishes, this one returns ErrSearchSuperseded.
func (s *SearchCoordinator) Search(ctx context.Context, clientID, query string) ([]models.MovieSummary, error) {
	if clientID == "" {
		return s.searcher.Search(ctx, query)
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	generation := s.begin(clientID, cancel)
	movies, err := s.searcher.Search(searchCtx, query)

	if !s.finish(clientID, generation) {
		return nil, ErrSearchSuperseded
	}
	if err != nil {
		return nil, err
	}
	return movies, nil
}

// InFlight reports how many clients currently have a search running
func (s *SearchCoordinator) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SearchCoordinator) begin(clientID string, cancel context.CancelFunc) uint64 {
	generation := s.counter.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sessions[clientID]; ok {
		prev.cancel()
	}
	s.sessions[clientID] = &searchSession{generation: generation, cancel: cancel}
	return generation
}

// finish reports whether generation was still current, and clears it if so
func (s *SearchCoordinator) finish(clientID string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[clientID]
	if !ok || current.generation != generation {
		return false
	}
	delete(s.sessions, clientID)
	return true
}
