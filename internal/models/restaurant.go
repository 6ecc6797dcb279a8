package models

import "time"

// Restaurant is a catalog entry. Restaurants are seeded by administration
// and read-only during normal operation.
type Restaurant struct {
	ID     int                `json:"id" db:"id"`
	Name   string             `json:"name" db:"name"`
	Menu   map[string]float64 `json:"menu" db:"menu"`
	Active bool               `json:"active" db:"active"`
}

// RestaurantRef is the id+name pair used in listings and session state.
type RestaurantRef struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// LedgerRow is one persisted order record. Rows are append-only and
// immutable; they feed the recommendation engine, never live session state.
type LedgerRow struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Item      string    `json:"item" db:"item"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ItemCount is a ranked recommendation entry: how many ledger rows
// mention the item.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}
