package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/liamwears/popular/internal/listing"
	"github.com/liamwears/popular/internal/middleware"
	"github.com/liamwears/popular/internal/models"
)

const (
	// ScrollThreshold is how close to the end of the list the next page is requested
	ScrollThreshold = "10px"
	// ToastMillis is how long the error toast stays visible
	ToastMillis = 3000
	// RetryMillis is how long the page waits before asking again after a refused load
	RetryMillis = 1000

	saveTimeout = 5 * time.Second
)

// PageHandler serves the popular movies screen
type PageHandler struct {
	registry *listing.Registry
	renderer *Renderer
	logger   *log.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(registry *listing.Registry, renderer *Renderer, logger *log.Logger) *PageHandler {
	return &PageHandler{
		registry: registry,
		renderer: renderer,
		logger:   logger,
	}
}

type homeView struct {
	ScreenID    string
	ScreenIDKey string
	State       listing.State
	Threshold   string
	ToastMillis int
	RetryMillis int
}

type nextView struct {
	Movies      []models.Movie
	CanLoadMore bool
	// Busy marks a load refused because another one is still running
	Busy  bool
	State listing.State
}

// screen resolves the controller of the requesting screen
func (h *PageHandler) screen(r *http.Request) (uuid.UUID, *listing.Controller, error) {
	screenID, ok := middleware.GetScreenIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, nil, errors.New("request has no screen")
	}
	ctrl, err := h.registry.Get(r.Context(), screenID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return screenID, ctrl, nil
}

// save runs detached from request cancellation so an aborted client cannot
// leave the store behind the live controller.
func (h *PageHandler) save(ctx context.Context, screenID uuid.UUID, ctrl *listing.Controller) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := h.registry.Save(ctx, screenID, ctrl); err != nil {
		h.logger.Printf("Failed to save screen: %v", err)
	}
}

// logLoad reports load failures. They are already reflected in the screen state.
func (h *PageHandler) logLoad(err error) {
	var fetchErr *listing.FetchError
	switch {
	case err == nil:
	case errors.As(err, &fetchErr):
		h.logger.Printf("Failed to fetch popular movies page %d: %v", fetchErr.Page, fetchErr.Err)
	default:
		h.logger.Printf("Skipped popular movies load: %v", err)
	}
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	screenID, ctrl, err := h.screen(r)
	if err != nil {
		h.logger.Printf("Failed to resolve screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Entering the screen reloads the current page
	h.logLoad(ctrl.Activate(r.Context()))
	h.save(r.Context(), screenID, ctrl)

	h.renderer.RenderPage(w, "home.html", homeView{
		ScreenID:    screenID.String(),
		ScreenIDKey: middleware.ScreenIDHeader,
		State:       ctrl.Snapshot(),
		Threshold:   ScrollThreshold,
		ToastMillis: ToastMillis,
		RetryMillis: RetryMillis,
	})
}

// NextPage handles GET /movies/next and always answers with a fragment so the
// scroll control can leave its loading state. A refused load answers with a
// busy sentinel the page waits on before observing it again.
func (h *PageHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	screenID, ctrl, err := h.screen(r)
	if err != nil {
		h.logger.Printf("Failed to resolve screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	shown, _ := strconv.Atoi(r.URL.Query().Get("shown"))
	if shown < 0 {
		shown = 0
	}

	// The fragment rendered below is the completion signal for the page.
	err = ctrl.LoadNextPage(r.Context(), nil)
	h.logLoad(err)
	h.save(r.Context(), screenID, ctrl)

	state := ctrl.Snapshot()
	if shown > len(state.Movies) {
		shown = len(state.Movies)
	}
	h.renderer.RenderFragment(w, "next", nextView{
		Movies:      state.Movies[shown:],
		CanLoadMore: state.CanLoadMore,
		Busy:        errors.Is(err, listing.ErrLoadInFlight),
		State:       state,
	})
}

// Search handles POST /search. The text is held for the screen only.
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	screenID, ctrl, err := h.screen(r)
	if err != nil {
		h.logger.Printf("Failed to resolve screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ctrl.SetSearchText(r.FormValue("query"))
	h.save(r.Context(), screenID, ctrl)
	w.WriteHeader(http.StatusNoContent)
}

// OpenModal handles POST /modal/open
func (h *PageHandler) OpenModal(w http.ResponseWriter, r *http.Request) {
	h.toggleModal(w, r, true)
}

// CloseModal handles POST /modal/close
func (h *PageHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	h.toggleModal(w, r, false)
}

func (h *PageHandler) toggleModal(w http.ResponseWriter, r *http.Request, open bool) {
	screenID, ctrl, err := h.screen(r)
	if err != nil {
		h.logger.Printf("Failed to resolve screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if open {
		ctrl.OpenModal()
	} else {
		ctrl.CloseModal()
	}
	h.save(r.Context(), screenID, ctrl)
	h.renderer.RenderFragment(w, "modal", ctrl.Snapshot())
}

// DismissToast handles POST /toast/dismiss
func (h *PageHandler) DismissToast(w http.ResponseWriter, r *http.Request) {
	screenID, ctrl, err := h.screen(r)
	if err != nil {
		h.logger.Printf("Failed to resolve screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ctrl.DismissError()
	h.save(r.Context(), screenID, ctrl)
	w.WriteHeader(http.StatusNoContent)
}

// Listing handles GET /api/listing
func (h *PageHandler) Listing(w http.ResponseWriter, r *http.Request) {
	_, ctrl, err := h.screen(r)
	if err != nil {
		h.logger.Printf("Failed to resolve screen: %v", err)
		http.Error(w, `{"error":"Failed to load screen"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ctrl.Snapshot())
}
