package handlers

import (
	"net/http"

	"github.com/liamwears/popular/internal/middleware"
)

// RegisterRoutes mounts the screen and JSON API routes on mux
func RegisterRoutes(mux *http.ServeMux, pages *PageHandler, tmdb *TMDBHandler, screens *middleware.ScreenMiddleware) {
	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(route, h))
	}
	screen := func(h http.HandlerFunc) http.HandlerFunc {
		return screens.Attach(h).ServeHTTP
	}

	// Screen routes. Rendering the page starts a screen, the rest act on it.
	handle("GET /{$}", "/", screens.Issue(http.HandlerFunc(pages.Home)).ServeHTTP)
	handle("GET /movies/next", "/movies/next", screen(pages.NextPage))
	handle("POST /search", "/search", screen(pages.Search))
	handle("POST /modal/open", "/modal/open", screen(pages.OpenModal))
	handle("POST /modal/close", "/modal/close", screen(pages.CloseModal))
	handle("POST /toast/dismiss", "/toast/dismiss", screen(pages.DismissToast))
	handle("GET /api/listing", "/api/listing", screen(pages.Listing))

	// TMDB API routes
	handle("GET /api/tmdb/movie/popular", "/api/tmdb/movie/popular", tmdb.PopularMovies)
	handle("GET /api/tmdb/movie/{id}", "/api/tmdb/movie/{id}", tmdb.GetMovie)
}
