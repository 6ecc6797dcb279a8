// Package ledger provides the append-only history of individual order
// line items. The ledger feeds recommendations only; it is never read to
// reconstruct live session state.
package ledger

import (
	"context"

	"group-order-bot/internal/models"
)

// Ledger is the order history interface.
type Ledger interface {
	// Append durably records one line item. Rows are immutable once
	// written.
	Append(ctx context.Context, userID, restaurantName, item string, quantity int) error

	// QueryByUser returns the user's rows in insertion order.
	QueryByUser(ctx context.Context, userID string) ([]models.LedgerRow, error)

	// QueryRecent returns all rows from the trailing window, in
	// insertion order.
	QueryRecent(ctx context.Context, windowDays int) ([]models.LedgerRow, error)

	// QueryAll returns every row, in insertion order. Backs the global
	// popularity fallback.
	QueryAll(ctx context.Context) ([]models.LedgerRow, error)
}
