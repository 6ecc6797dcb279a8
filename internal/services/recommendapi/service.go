// Package recommendapi exposes the user-at-restaurant recommendation as
// a standalone HTTP JSON API.
package recommendapi

import (
	"context"

	"group-order-bot/internal/logger"
	"group-order-bot/internal/models"
	"group-order-bot/internal/recommend"
)

// Service wraps the recommendation engine for the API surface.
type Service struct {
	engine *recommend.Engine
	logger *logger.Logger
}

// NewService creates a new recommend API service.
func NewService(engine *recommend.Engine, log *logger.Logger) *Service {
	return &Service{
		engine: engine,
		logger: log,
	}
}

// Recommend returns the user's top items at the named restaurant.
func (s *Service) Recommend(ctx context.Context, userID, restaurantName string) ([]models.ItemCount, error) {
	return s.engine.ForUserAtRestaurant(ctx, userID, restaurantName)
}
