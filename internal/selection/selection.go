// Package selection exposes the selectable walking times and triggers a
// refresh when the user picks one.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/isocronas-quito/api/internal/refresh"
	"github.com/isocronas-quito/api/internal/ui"
	"github.com/isocronas-quito/api/models"
)

// ErrInvalidSelection is returned for values outside the selectable set
var ErrInvalidSelection = errors.New("walking time is not selectable")

// Refresher rebuilds the overlay for a walking time
type Refresher interface {
	Refresh(ctx context.Context, minutes models.TimeSelection) (refresh.Result, error)
	// CurrentMinutes reports the walking time whose layer is, or is about to be, live
	CurrentMinutes() (models.TimeSelection, bool)
}

// Option is one entry of the dropdown
type Option struct {
	Minutes  models.TimeSelection `json:"minutes"`
	Label    string               `json:"label"`
	Selected bool                 `json:"selected"`
}

// Control holds the current selection and forwards changes to the refresher
type Control struct {
	refresher    Refresher
	presentation ui.Presentation

	mu      sync.RWMutex
	current models.TimeSelection
}

// NewControl creates a control with the default selection
func NewControl(r Refresher, p ui.Presentation) *Control {
	return &Control{
		refresher:    r,
		presentation: p,
		current:      models.DefaultTimeSelection,
	}
}

// Current returns the selected walking time. While a refresh is running or
// settled it is that refresh's time, so it always matches the live overlay.
func (c *Control) Current() models.TimeSelection {
	if m, ok := c.refresher.CurrentMinutes(); ok {
		return m
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Options returns the dropdown entries, marking the current one
func (c *Control) Options() []Option {
	current := c.Current()

	all := models.AllTimeSelections()
	opts := make([]Option, 0, len(all))
	for _, m := range all {
		opts = append(opts, Option{
			Minutes:  m,
			Label:    c.presentation.OptionLabel(m),
			Selected: m == current,
		})
	}
	return opts
}

// Select refreshes the overlay for minutes. The value is kept as the
// selection unless the refresh fails or is overtaken by a newer one.
func (c *Control) Select(ctx context.Context, minutes models.TimeSelection) (refresh.Result, error) {
	if !minutes.Valid() {
		return refresh.Result{}, fmt.Errorf("%w: %d", ErrInvalidSelection, int(minutes))
	}

	res, err := c.refresher.Refresh(ctx, minutes)
	if err != nil {
		return res, err
	}

	// A superseded refresh leaves the selection to the one that overtook it
	if !res.Superseded {
		c.mu.Lock()
		c.current = minutes
		c.mu.Unlock()
	}
	return res, nil
}
