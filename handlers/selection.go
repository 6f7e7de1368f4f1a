package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	applog "github.com/isocronas-quito/api/internal/logger"
	"github.com/isocronas-quito/api/internal/refresh"
	"github.com/isocronas-quito/api/internal/selection"
	"github.com/isocronas-quito/api/models"
)

// Selector changes the walking-time selection
type Selector interface {
	Select(ctx context.Context, minutes models.TimeSelection) (refresh.Result, error)
}

// SelectionHandler handles selection changes from the page
type SelectionHandler struct {
	selector Selector
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSelectionHandler creates a handler whose refreshes run for at most timeout.
// A zero timeout means no limit.
func NewSelectionHandler(s Selector, timeout time.Duration, logger *slog.Logger) *SelectionHandler {
	if logger == nil {
		logger = applog.L()
	}
	return &SelectionHandler{selector: s, timeout: timeout, logger: logger}
}

// SelectionRequest is the JSON body of PUT /api/selection
type SelectionRequest struct {
	Minutes *int `json:"minutes"`
}

// PutSelection handles PUT and POST /api/selection
// Runs the refresh and returns its Result once every station settled
func (h *SelectionHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}
	if req.Minutes == nil {
		writeError(w, http.StatusBadRequest, "minutes is required", nil)
		return
	}

	// The refresh outlives a client that hangs up; the page reloads the overlay anyway
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.selector.Select(ctx, models.TimeSelection(*req.Minutes))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, selection.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, "Invalid walking time", map[string]interface{}{
			"minutes": *req.Minutes,
			"allowed": models.AllTimeSelections(),
		})
	case errors.Is(err, refresh.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "Map is shutting down", nil)
	default:
		h.logger.Error("selection_failed", "minutes", *req.Minutes, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to refresh overlay", nil)
	}
}
