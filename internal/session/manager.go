// Package session implements the per-group state machine for one live
// group order: start, restaurant selection, item collection, close-out.
package session

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/ledger"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/metrics"
)

const shardCount = 16

// shard holds a slice of the session table. Every operation on a group
// key runs under its shard's lock, so operations on one key serialize in
// arrival order while keys in other shards proceed independently.
type shard struct {
	mu       sync.Mutex
	sessions map[string]*groupSession
}

// Options configures session policy.
type Options struct {
	// ClearItemsOnReselect drops already-collected items when the
	// restaurant is changed mid-session. Off by default: items survive
	// a reselect.
	ClearItemsOnReselect bool
}

// Manager owns the in-memory session table. Sessions live until an
// explicit close or process restart; there is no expiry sweep.
type Manager struct {
	catalog catalog.Store
	ledger  ledger.Ledger
	logger  *logger.Logger
	metrics *metrics.Registry
	opts    Options
	shards  [shardCount]shard
}

// NewManager creates a session manager over the given catalog and ledger.
func NewManager(cat catalog.Store, led ledger.Ledger, log *logger.Logger, m *metrics.Registry, opts Options) *Manager {
	mgr := &Manager{
		catalog: cat,
		ledger:  led,
		logger:  log,
		metrics: m,
		opts:    opts,
	}
	for i := range mgr.shards {
		mgr.shards[i].sessions = make(map[string]*groupSession)
	}
	return mgr
}

func (m *Manager) shardFor(groupKey string) *shard {
	h := fnv.New32a()
	h.Write([]byte(groupKey))
	return &m.shards[h.Sum32()%shardCount]
}

// StartOrder creates an empty session for the group. Fails with
// ErrSessionAlreadyActive if one exists; the existing session is left
// untouched.
func (m *Manager) StartOrder(groupKey string) error {
	s := m.shardFor(groupKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[groupKey]; exists {
		return ErrSessionAlreadyActive
	}

	s.sessions[groupKey] = &groupSession{}
	m.metrics.ActiveSessions.Inc()
	m.logger.Debug("session_started", "Group order session created", "", map[string]interface{}{
		"group_key": groupKey,
	})
	return nil
}

// SelectRestaurant sets the session's restaurant after looking it up in
// the catalog, and returns the menu. Reselecting mid-session is allowed;
// whether collected items survive is governed by Options.
func (m *Manager) SelectRestaurant(ctx context.Context, groupKey, name string) (map[string]float64, error) {
	s := m.shardFor(groupKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[groupKey]
	if !exists {
		return nil, ErrNoActiveSession
	}

	// Catalog lookup happens under the shard lock so the whole
	// transition is applied in arrival order for this key.
	menu, err := m.catalog.GetMenuByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if sess.restaurantName != "" && sess.restaurantName != name && m.opts.ClearItemsOnReselect {
		sess.items = nil
	}
	sess.restaurantName = name

	return menu, nil
}

// JoinOrder appends a line item to the session and records it in the
// ledger. The in-memory append is authoritative for the live session; the
// ledger write is best-effort and a failure is logged, counted, and does
// not block the acknowledgment.
func (m *Manager) JoinOrder(ctx context.Context, groupKey, userID, userName, item string, quantity int) error {
	s := m.shardFor(groupKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[groupKey]
	if !exists || sess.restaurantName == "" {
		return ErrNoActiveRestaurant
	}

	item = strings.TrimSpace(item)
	if item == "" || quantity <= 0 {
		return ErrMalformedJoinCommand
	}

	sess.items = append(sess.items, LineItem{
		UserID:   userID,
		UserName: userName,
		Item:     item,
		Quantity: quantity,
	})

	if err := m.ledger.Append(ctx, userID, sess.restaurantName, item, quantity); err != nil {
		m.metrics.LedgerWriteFailures.Inc()
		m.logger.Error("ledger_write_failed", "Failed to record line item in ledger", "", err, map[string]interface{}{
			"group_key":  groupKey,
			"user_id":    userID,
			"item":       item,
			"quantity":   quantity,
			"restaurant": sess.restaurantName,
		})
	}

	return nil
}

// ListOrders returns a snapshot of the group's session, or nil if the
// group has no active session.
func (m *Manager) ListOrders(groupKey string) *View {
	s := m.shardFor(groupKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[groupKey]
	if !exists {
		return nil
	}
	return sess.view()
}

// CloseOrder aggregates the session's items and deletes the session. A
// session with zero items still gets deleted; the summary comes back with
// no lines. The ledger rows written during the session survive.
func (m *Manager) CloseOrder(groupKey string) (*Summary, error) {
	s := m.shardFor(groupKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[groupKey]
	if !exists {
		return nil, ErrNoActiveSession
	}

	summary := &Summary{
		RestaurantName: sess.restaurantName,
		Lines:          sess.aggregate(),
	}

	delete(s.sessions, groupKey)
	m.metrics.ActiveSessions.Dec()
	m.logger.Debug("session_closed", "Group order session closed", "", map[string]interface{}{
		"group_key":  groupKey,
		"restaurant": summary.RestaurantName,
		"line_count": len(summary.Lines),
	})

	return summary, nil
}
