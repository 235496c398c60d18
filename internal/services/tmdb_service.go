package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/liamwears/popular/internal/models"
)

var (
	tmdbRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popular_tmdb_requests_total",
		Help: "Total requests sent to the TMDB API",
	}, []string{"endpoint", "outcome"})

	tmdbRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popular_tmdb_request_duration_seconds",
		Help:    "TMDB API request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})
)

// ErrUnexpectedStatus is wrapped by StatusError so callers can match any non-2xx answer.
var ErrUnexpectedStatus = errors.New("tmdb: unexpected status")

// StatusError is returned when TMDB answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	logger  *log.Logger
}

// TMDBConfig holds TMDB service configuration
type TMDBConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Client overrides the default HTTP client, mostly for tests.
	Client *http.Client
}

// NewTMDBService creates a new TMDB service
func NewTMDBService(cfg TMDBConfig, logger *log.Logger) *TMDBService {
	if logger == nil {
		logger = log.Default()
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &TMDBService{
		client:  client,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// doRequest performs a GET against TMDB and returns the raw body of a 2xx answer
func (s *TMDBService) doRequest(ctx context.Context, endpoint, label string, params url.Values) (body []byte, err error) {
	timer := prometheus.NewTimer(tmdbRequestDuration.WithLabelValues(label))
	defer timer.ObserveDuration()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		tmdbRequestsTotal.WithLabelValues(label, outcome).Inc()
	}()

	if params == nil {
		params = url.Values{}
	}
	// The key travels as a query parameter, empty or not.
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// url.Error repeats the request URL, api_key included. Keep only the cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// PopularMovies retrieves one page of the popular movies listing
func (s *TMDBService) PopularMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	body, err := s.doRequest(ctx, "movie/popular", "movie/popular", params)
	if err != nil {
		return nil, err
	}

	var response models.MoviePage
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal popular movies: %w", err)
	}

	s.logger.Printf("tmdb: popular page %d returned %d of %d movies", page, len(response.Results), response.TotalResults)

	return &response, nil
}

// GetMovie retrieves a movie by ID
func (s *TMDBService) GetMovie(ctx context.Context, movieID int) (*models.Movie, error) {
	endpoint := fmt.Sprintf("movie/%d", movieID)
	body, err := s.doRequest(ctx, endpoint, "movie/{id}", nil)
	if err != nil {
		return nil, err
	}

	var movie models.Movie
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("failed to unmarshal movie: %w", err)
	}

	return &movie, nil
}
