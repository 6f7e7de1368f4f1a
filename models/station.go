package models

import (
	"errors"
	"strings"
)

// Station represents a metro station with its coordinates
// Immutable once loaded into the registry
type Station struct {
	Name string  `db:"name" json:"name"`
	Lat  float64 `db:"latitude" json:"lat"`
	Lng  float64 `db:"longitude" json:"lng"`
}

// Validate checks if the Station model has valid data
func (s Station) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}

	// Latitude must be in valid range [-90, 90]
	if s.Lat < -90 || s.Lat > 90 {
		return errors.New("latitude out of range: must be between -90 and 90")
	}

	// Longitude must be in valid range [-180, 180]
	if s.Lng < -180 || s.Lng > 180 {
		return errors.New("longitude out of range: must be between -180 and 180")
	}

	return nil
}

// QuitoMetroStations is the built-in station list for Line 1 of the Quito Metro,
// ordered north to south
var QuitoMetroStations = []Station{
	{Name: "El Labrador", Lat: -0.155488715, Lng: -78.4862017},
	{Name: "Jipijapa", Lat: -0.164250208, Lng: -78.48351848},
	{Name: "Inaquito", Lat: -0.176128084, Lng: -78.48332669},
	{Name: "La Carolina", Lat: -0.190137744, Lng: -78.48584082},
	{Name: "La Pradera", Lat: -0.193785121, Lng: -78.49156314},
	{Name: "Universidad Central", Lat: -0.198362048, Lng: -78.50029599},
	{Name: "El Ejido", Lat: -0.208858286, Lng: -78.49858004},
	{Name: "La Alameda", Lat: -0.215251174, Lng: -78.50189827},
	{Name: "San Francisco", Lat: -0.220586412, Lng: -78.51557306},
	{Name: "Magdalena", Lat: -0.238966673, Lng: -78.52450384},
	{Name: "El Recreo", Lat: -0.251638659, Lng: -78.5213177},
	{Name: "Cardenal", Lat: -0.257201022, Lng: -78.53307995},
	{Name: "Solanda", Lat: -0.265509315, Lng: -78.53597212},
	{Name: "Moran Valverde", Lat: -0.280825688, Lng: -78.54891402},
	{Name: "Quitumbe", Lat: -0.29504751, Lng: -78.55605527},
}
