package registry

import (
	"errors"
	"fmt"

	"github.com/isocronas-quito/api/models"
)

// Registry is the fixed, ordered set of stations shown on the map.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	stations []models.Station
	byName   map[string]int
}

// New validates the given stations and builds a registry that keeps their order
func New(stations []models.Station) (*Registry, error) {
	if len(stations) == 0 {
		return nil, errors.New("registry needs at least one station")
	}

	r := &Registry{
		stations: make([]models.Station, len(stations)),
		byName:   make(map[string]int, len(stations)),
	}
	copy(r.stations, stations)

	for i, s := range r.stations {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("station %d (%q): %w", i, s.Name, err)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate station name %q", s.Name)
		}
		r.byName[s.Name] = i
	}

	return r, nil
}

// Default returns the registry of the built-in Quito Metro stations
func Default() *Registry {
	r, err := New(models.QuitoMetroStations)
	if err != nil {
		panic(fmt.Sprintf("built-in station list is invalid: %v", err))
	}
	return r
}

// Stations returns all stations in registry order.
// The result is a copy; changing it does not affect the registry.
func (r *Registry) Stations() []models.Station {
	result := make([]models.Station, len(r.stations))
	copy(result, r.stations)
	return result
}

// Get returns the station with the given name
func (r *Registry) Get(name string) (models.Station, bool) {
	i, ok := r.byName[name]
	if !ok {
		return models.Station{}, false
	}
	return r.stations[i], true
}

// Len returns the number of stations
func (r *Registry) Len() int {
	return len(r.stations)
}
