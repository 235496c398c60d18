package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/liamwears/popular/internal/models"
	"github.com/liamwears/popular/internal/services"
)

// MovieSource is the part of the TMDB service the JSON API needs
type MovieSource interface {
	PopularMovies(ctx context.Context, page int) (*models.MoviePage, error)
	GetMovie(ctx context.Context, movieID int) (*models.Movie, error)
}

// TMDBHandler handles TMDB API requests
type TMDBHandler struct {
	tmdbService MovieSource
	logger      *log.Logger
}

// NewTMDBHandler creates a new TMDB handler
func NewTMDBHandler(tmdbService MovieSource, logger *log.Logger) *TMDBHandler {
	return &TMDBHandler{
		tmdbService: tmdbService,
		logger:      logger,
	}
}

func upstreamStatus(err error) int {
	var statusErr *services.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// GetMovie handles GET /api/tmdb/movie/{id}
func (h *TMDBHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	// Get movie ID from path
	idStr := r.PathValue("id")
	movieID, err := strconv.Atoi(idStr)
	if err != nil || movieID < 1 {
		http.Error(w, `{"error":"Invalid movie ID"}`, http.StatusBadRequest)
		return
	}

	// Call TMDB service
	movie, err := h.tmdbService.GetMovie(r.Context(), movieID)
	if err != nil {
		h.logger.Printf("Failed to fetch movie from TMDB: %v", err)
		http.Error(w, `{"error":"Failed to fetch movie"}`, upstreamStatus(err))
		return
	}

	// Return movie
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movie)
}

// PopularMovies handles GET /api/tmdb/movie/popular
func (h *TMDBHandler) PopularMovies(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	// Call TMDB service
	result, err := h.tmdbService.PopularMovies(r.Context(), page)
	if err != nil {
		h.logger.Printf("Failed to fetch popular movies: %v", err)
		http.Error(w, `{"error":"Failed to fetch popular movies"}`, upstreamStatus(err))
		return
	}

	// Return results
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
