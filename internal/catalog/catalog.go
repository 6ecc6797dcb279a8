// Package catalog provides read access to the persisted restaurant catalog.
package catalog

import (
	"context"
	"errors"

	"group-order-bot/internal/models"
)

// ErrRestaurantNotFound is returned when a restaurant name is not in the
// catalog (or is inactive).
var ErrRestaurantNotFound = errors.New("restaurant not found")

// Store is the read interface over the restaurant catalog.
type Store interface {
	// ListActiveRestaurants returns all active restaurants in id order.
	ListActiveRestaurants(ctx context.Context) ([]models.RestaurantRef, error)

	// GetMenuByName returns the named restaurant's menu as item -> unit
	// price, or ErrRestaurantNotFound.
	GetMenuByName(ctx context.Context, name string) (map[string]float64, error)
}
