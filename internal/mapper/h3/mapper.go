// Package h3mapper labels observer locations with H3 cells. Cells group
// resolution events by area; they never take part in cache matching.
package h3mapper

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// ObserverCell returns the cell containing (lat, lon) at res.
func ObserverCell(lat, lon float64, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", fmt.Errorf("observer %g,%g out of range", lat, lon)
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}
