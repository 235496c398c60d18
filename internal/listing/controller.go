// Package listing holds the state machine behind the popular movies screen:
// paginated fetches merged into one deduplicated list, and the gate that
// decides whether infinite scroll may ask for another page.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/liamwears/popular/internal/models"
)

var (
	// ErrStaleResponse is returned when a newer load started while this one was waiting.
	ErrStaleResponse = errors.New("listing: stale response discarded")
	// ErrLoadInFlight is returned by LoadNextPage when another load has not finished.
	ErrLoadInFlight = errors.New("listing: load already in flight")
	// ErrNoMorePages is returned by LoadNextPage once pagination is disabled.
	ErrNoMorePages = errors.New("listing: no more pages")
	// ErrLoadAbandoned is returned when the caller gave up on a load before it failed.
	ErrLoadAbandoned = errors.New("listing: load abandoned by caller")
	// ErrScreenNotFound is returned by a Store that holds no state for a screen.
	ErrScreenNotFound = errors.New("listing: screen not found")
)

// Fetcher retrieves one page of the popular movies listing
type Fetcher interface {
	PopularMovies(ctx context.Context, page int) (*models.MoviePage, error)
}

// FetcherFunc adapts a plain function to Fetcher
type FetcherFunc func(ctx context.Context, page int) (*models.MoviePage, error)

func (f FetcherFunc) PopularMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	return f(ctx, page)
}

// FetchError is the single failure kind of a page load. Transport errors,
// non-2xx answers and malformed payloads all end up here.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// State is everything the screen shows. It lives as long as the screen.
type State struct {
	Movies      []models.Movie `json:"movies"`
	CurrentPage int            `json:"currentPage"`
	CanLoadMore bool           `json:"canLoadMore"`
	LastError   string         `json:"lastError,omitempty"`
	ShowToast   bool           `json:"showToast"`
	ShowModal   bool           `json:"showModal"`
	SearchText  string         `json:"searchText"`
	// Failed latches after the first failed load and keeps pagination off for the screen's lifetime.
	Failed bool `json:"failed"`
}

// NewState returns the state of a screen that has not fetched anything yet
func NewState() State {
	return State{
		Movies:      []models.Movie{},
		CurrentPage: 1,
		CanLoadMore: true,
	}
}

func (s State) clone() State {
	out := s
	out.Movies = make([]models.Movie, len(s.Movies))
	copy(out.Movies, s.Movies)
	return out
}

// Controller owns the State of one screen and serializes every mutation of it.
type Controller struct {
	mu      sync.Mutex
	fetcher Fetcher
	cfg     Config
	logger  *log.Logger

	state State
	// seq is bumped by every load; only the response carrying the latest value is applied.
	seq      uint64
	inFlight int
}

// NewController creates a controller for a fresh screen
func NewController(fetcher Fetcher, cfg Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		state:   NewState(),
	}
}

// Restore replaces the controller state, e.g. with a snapshot kept in a Store
func (c *Controller) Restore(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state.CurrentPage < 1 {
		state.CurrentPage = 1
	}
	c.state = state.clone()
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Activate is called when the screen is entered and reloads the current page
func (c *Controller) Activate(ctx context.Context) error {
	return c.LoadPage(ctx, 0)
}

// LoadPage fetches page and merges it into the list. A page below 1 means the
// current page. On failure the list and page are kept, the error is surfaced
// through the toast and pagination is switched off for good.
func (c *Controller) LoadPage(ctx context.Context, page int) error {
	c.mu.Lock()
	if page < 1 {
		page = c.state.CurrentPage
	}
	token := c.begin()
	c.mu.Unlock()

	return c.fetch(ctx, page, token)
}

// LoadNextPage asks for the page after the current one. complete is always
// called before returning so the scroll control never stays in its loading state.
func (c *Controller) LoadNextPage(ctx context.Context, complete func()) error {
	if complete != nil {
		defer complete()
	}

	c.mu.Lock()
	if !c.state.CanLoadMore {
		c.mu.Unlock()
		return ErrNoMorePages
	}
	if c.inFlight > 0 {
		c.mu.Unlock()
		return ErrLoadInFlight
	}
	page := c.state.CurrentPage + 1
	token := c.begin()
	c.mu.Unlock()

	return c.fetch(ctx, page, token)
}

// begin reserves a sequence token. Callers hold c.mu.
func (c *Controller) begin() uint64 {
	c.seq++
	c.inFlight++
	return c.seq
}

func (c *Controller) fetch(ctx context.Context, page int, token uint64) error {
	result, err := c.fetcher.PopularMovies(ctx, page)
	if err == nil && result == nil {
		err = fmt.Errorf("empty response for page %d", page)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--

	if token != c.seq {
		c.logger.Printf("listing: discarding stale response for page %d", page)
		return ErrStaleResponse
	}

	// A caller that went away says nothing about TMDB, so the screen is left as it was.
	if err != nil && ctx.Err() != nil {
		c.logger.Printf("listing: page %d load abandoned: %v", page, ctx.Err())
		return fmt.Errorf("%w: %w", ErrLoadAbandoned, ctx.Err())
	}

	if err != nil {
		fetchErr := &FetchError{Page: page, Err: err}
		c.state.LastError = fetchErr.Error()
		c.state.ShowToast = true
		c.state.CanLoadMore = false
		c.state.Failed = true
		return fetchErr
	}

	c.state.Movies = MergeUnique(c.state.Movies, result.Results)
	c.state.CurrentPage = page
	c.state.CanLoadMore = !c.state.Failed && len(c.state.Movies) != result.TotalResults
	c.logger.Printf("listing: page %d merged, holding %d of %d movies", page, len(c.state.Movies), result.TotalResults)

	return nil
}

// SetSearchText stores the search bar value. It does not filter or re-query.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchText = text
}

func (c *Controller) OpenModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShowModal = true
}

func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShowModal = false
}

// DismissError hides the toast. Pagination stays disabled after a failure.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShowToast = false
}

// ResolvePosterURL returns the full poster URL for path, or the fallback image
func (c *Controller) ResolvePosterURL(path *string) string {
	return c.cfg.PosterURL(path)
}

// MergeUnique appends incoming to held, skipping ids already present.
// The first occurrence of an id wins and order is preserved. held is not modified.
func MergeUnique(held, incoming []models.Movie) []models.Movie {
	merged := make([]models.Movie, 0, len(held)+len(incoming))
	seen := make(map[int]struct{}, len(held)+len(incoming))
	for _, list := range [][]models.Movie{held, incoming} {
		for _, movie := range list {
			if _, ok := seen[movie.ID]; ok {
				continue
			}
			seen[movie.ID] = struct{}{}
			merged = append(merged, movie)
		}
	}
	return merged
}
