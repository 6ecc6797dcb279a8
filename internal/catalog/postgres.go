package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"group-order-bot/internal/database"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/models"
)

// PostgresStore reads the catalog from the restaurants table.
type PostgresStore struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresStore creates a catalog store backed by PostgreSQL.
func NewPostgresStore(db *database.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log,
	}
}

func (s *PostgresStore) ListActiveRestaurants(ctx context.Context) ([]models.RestaurantRef, error) {
	rows, err := s.db.Query(ctx, database.ListActiveRestaurantsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []models.RestaurantRef
	for rows.Next() {
		var r models.RestaurantRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}

	return restaurants, rows.Err()
}

func (s *PostgresStore) GetMenuByName(ctx context.Context, name string) (map[string]float64, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, database.GetMenuByNameSQL, name).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}

	menu := make(map[string]float64)
	if err := json.Unmarshal(raw, &menu); err != nil {
		return nil, fmt.Errorf("failed to decode menu for %s: %w", name, err)
	}

	return menu, nil
}
