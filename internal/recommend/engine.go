// Package recommend derives ranked item suggestions from the order
// ledger. It is a pure read-side component: nothing here mutates state.
package recommend

import (
	"context"
	"errors"
	"sort"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/ledger"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/models"
)

var (
	// ErrNoHistoryAvailable means neither the user nor anyone else has
	// any ledger history to recommend from.
	ErrNoHistoryAvailable = errors.New("no order history available")

	// ErrNoRecentActivity means the trailing window holds no rows.
	ErrNoRecentActivity = errors.New("no recent order activity")

	// ErrEmptyMenu means the restaurant exists but has no menu items.
	ErrEmptyMenu = errors.New("restaurant has an empty menu")

	// ErrNoMatchingHistory means the user has no history on the
	// restaurant's menu.
	ErrNoMatchingHistory = errors.New("no matching order history")
)

// Options configures engine parameters.
type Options struct {
	// TopN is the number of suggestions returned. Defaults to 3.
	TopN int

	// WindowDays is the trailing window for group recommendations.
	// Defaults to 30.
	WindowDays int
}

// Engine computes recommendations over the ledger and catalog.
type Engine struct {
	ledger  ledger.Ledger
	catalog catalog.Store
	logger  *logger.Logger
	opts    Options
}

// NewEngine creates a recommendation engine.
func NewEngine(led ledger.Ledger, cat catalog.Store, log *logger.Logger, opts Options) *Engine {
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	return &Engine{
		ledger:  led,
		catalog: cat,
		logger:  log,
		opts:    opts,
	}
}

// UserSource says which history produced a user recommendation.
type UserSource int

const (
	// SourcePersonal means the user's own rows were ranked.
	SourcePersonal UserSource = iota
	// SourceGlobal means the user had no history and global popularity
	// was ranked instead.
	SourceGlobal
)

// ForUser ranks the user's own most-ordered items. A user with no
// history falls back to global popularity across all users; if that is
// empty too, ErrNoHistoryAvailable.
func (e *Engine) ForUser(ctx context.Context, userID string) ([]models.ItemCount, UserSource, error) {
	rows, err := e.ledger.QueryByUser(ctx, userID)
	if err != nil {
		return nil, SourcePersonal, err
	}

	if ranked := rank(rows, nil, e.opts.TopN); len(ranked) > 0 {
		return ranked, SourcePersonal, nil
	}

	// Fall back to what everyone else has been ordering.
	all, err := e.ledger.QueryAll(ctx)
	if err != nil {
		return nil, SourceGlobal, err
	}

	ranked := rank(all, nil, e.opts.TopN)
	if len(ranked) == 0 {
		return nil, SourceGlobal, ErrNoHistoryAvailable
	}
	return ranked, SourceGlobal, nil
}

// ForGroup ranks items across all users within the trailing window.
// The group key does not scope the query: the ledger has no group
// column, so recent popularity across all users stands in for the
// group's taste.
func (e *Engine) ForGroup(ctx context.Context) ([]models.ItemCount, error) {
	rows, err := e.ledger.QueryRecent(ctx, e.opts.WindowDays)
	if err != nil {
		return nil, err
	}

	ranked := rank(rows, nil, e.opts.TopN)
	if len(ranked) == 0 {
		return nil, ErrNoRecentActivity
	}
	return ranked, nil
}

// ForUserAtRestaurant ranks the user's history restricted to items on
// the named restaurant's current menu.
func (e *Engine) ForUserAtRestaurant(ctx context.Context, userID, restaurantName string) ([]models.ItemCount, error) {
	menu, err := e.catalog.GetMenuByName(ctx, restaurantName)
	if err != nil {
		return nil, err
	}
	if len(menu) == 0 {
		return nil, ErrEmptyMenu
	}

	rows, err := e.ledger.QueryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	onMenu := make(map[string]bool, len(menu))
	for item := range menu {
		onMenu[item] = true
	}

	ranked := rank(rows, onMenu, e.opts.TopN)
	if len(ranked) == 0 {
		return nil, ErrNoMatchingHistory
	}
	return ranked, nil
}

// rank tallies item occurrences (row count, not quantity) and orders by
// count descending, ties broken by first-seen row order, truncated to
// topN. filter, when non-nil, restricts which items are tallied.
func rank(rows []models.LedgerRow, filter map[string]bool, topN int) []models.ItemCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for _, row := range rows {
		if filter != nil && !filter[row.Item] {
			continue
		}
		if _, seen := counts[row.Item]; !seen {
			firstSeen[row.Item] = len(order)
			order = append(order, row.Item)
		}
		counts[row.Item]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > topN {
		order = order[:topN]
	}

	ranked := make([]models.ItemCount, 0, len(order))
	for _, item := range order {
		ranked = append(ranked, models.ItemCount{Item: item, Count: counts[item]})
	}
	return ranked
}
