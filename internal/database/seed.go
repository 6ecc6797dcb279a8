package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// defaultRestaurants is the starter catalog inserted by the seed mode.
// Existing restaurants with the same name are left untouched.
var defaultRestaurants = []struct {
	Name string
	Menu map[string]float64
}{
	{
		Name: "285 Bento",
		Menu: map[string]float64{
			"Roast Chicken Leg Bento":         120,
			"Signature Grilled Chicken Bento": 100,
			"Crispy Fish Fillet Bento":        100,
			"Fried Chicken Cutlet Bento":      110,
			"Braised Pork Bento":              110,
			"Soy Braised Pork Chop Bento":     100,
		},
	},
	{
		Name: "Healthy Little Things",
		Menu: map[string]float64{
			"Garlic Milk Chicken Breast": 115,
			"Thai Basil Pork":            110,
			"Three Cup Mushrooms":        95,
			"Tofu Pork Patty":            115,
		},
	},
	{
		Name: "Suzuran Deli",
		Menu: map[string]float64{
			"Crispy Chicken Leg Rice": 85,
			"Pork Rib Rice":           70,
			"Sliced Pork Rice":        60,
			"Chicken Cutlet Rice":     75,
		},
	},
}

// SeedDefaultRestaurants inserts the default catalog.
func (db *DB) SeedDefaultRestaurants(ctx context.Context) error {
	for _, r := range defaultRestaurants {
		menu, err := json.Marshal(r.Menu)
		if err != nil {
			return fmt.Errorf("failed to marshal menu for %s: %w", r.Name, err)
		}

		if err := db.Exec(ctx, InsertRestaurantSQL, r.Name, menu); err != nil {
			return fmt.Errorf("failed to seed restaurant %s: %w", r.Name, err)
		}

		db.logger.Info("restaurant_seeded", fmt.Sprintf("Seeded restaurant: %s", r.Name), "startup", nil)
	}

	return nil
}
