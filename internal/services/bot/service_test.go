package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/messaging"
	"group-order-bot/internal/metrics"
	"group-order-bot/internal/models"
	"group-order-bot/internal/recommend"
	"group-order-bot/internal/session"
)

type fakeCatalog struct {
	refs  []models.RestaurantRef
	menus map[string]map[string]float64
}

func (f *fakeCatalog) ListActiveRestaurants(ctx context.Context) ([]models.RestaurantRef, error) {
	return f.refs, nil
}

func (f *fakeCatalog) GetMenuByName(ctx context.Context, name string) (map[string]float64, error) {
	menu, ok := f.menus[name]
	if !ok {
		return nil, catalog.ErrRestaurantNotFound
	}
	return menu, nil
}

type fakeLedger struct {
	mu   sync.Mutex
	rows []models.LedgerRow
}

func (f *fakeLedger) Append(ctx context.Context, userID, restaurantName, item string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, models.LedgerRow{UserID: userID, Item: item, Quantity: quantity, CreatedAt: time.Now()})
	return nil
}

func (f *fakeLedger) QueryByUser(ctx context.Context, userID string) ([]models.LedgerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerRow
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) QueryRecent(ctx context.Context, windowDays int) ([]models.LedgerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LedgerRow(nil), f.rows...), nil
}

func (f *fakeLedger) QueryAll(ctx context.Context) ([]models.LedgerRow, error) {
	return f.QueryRecent(ctx, 0)
}

type fakeResolver struct {
	names map[string]string
}

func (f *fakeResolver) Resolve(ctx context.Context, userID, groupID string) string {
	if name, ok := f.names[userID]; ok {
		return name
	}
	return "unknown user"
}

type fakePublisher struct {
	events []messaging.OrderClosedEvent
}

func (f *fakePublisher) PublishOrderClosed(ctx context.Context, event messaging.OrderClosedEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeLedger, *fakePublisher) {
	t.Helper()

	cat := &fakeCatalog{
		refs: []models.RestaurantRef{
			{ID: 1, Name: "Suzuran Deli"},
			{ID: 2, Name: "285 Bento"},
		},
		menus: map[string]map[string]float64{
			"Suzuran Deli": {"Pork Rib Rice": 70, "Chicken Cutlet Rice": 75},
			"285 Bento":    {"Braised Pork Bento": 110},
		},
	}
	led := &fakeLedger{}
	log := logger.New("test")
	m := metrics.NewRegistry()
	sessions := session.NewManager(cat, led, log, m, session.Options{})
	engine := recommend.NewEngine(led, cat, log, recommend.Options{})
	pub := &fakePublisher{}
	names := &fakeResolver{names: map[string]string{"u1": "Ann", "u2": "Bob"}}

	return NewService(sessions, cat, engine, names, pub, m, log), led, pub
}

func TestHandleCommand_FullOrderFlow(t *testing.T) {
	svc, led, pub := newTestService(t)
	ctx := context.Background()

	reply := svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	assert.Contains(t, reply.Text, "Pick a restaurant")
	assert.Equal(t, []string{"[restaurant] Suzuran Deli", "[restaurant] 285 Bento"}, reply.Suggestions)

	reply = svc.HandleCommand(ctx, "g1", "u1", "[restaurant] Suzuran Deli", true)
	assert.Contains(t, reply.Text, `Restaurant "Suzuran Deli" selected!`)
	assert.Contains(t, reply.Text, "Chicken Cutlet Rice: 75")
	assert.Contains(t, reply.Text, "Pork Rib Rice: 70")

	reply = svc.HandleCommand(ctx, "g1", "u1", "/join Pork Rib Rice 2", true)
	assert.Equal(t, "Added: Ann ordered Pork Rib Rice x2", reply.Text)

	reply = svc.HandleCommand(ctx, "g1", "u2", "/join Pork Rib Rice 1", true)
	assert.Equal(t, "Added: Bob ordered Pork Rib Rice x1", reply.Text)

	reply = svc.HandleCommand(ctx, "g1", "u1", "/list", true)
	assert.Equal(t, "Current order (Suzuran Deli):\n- Ann: Pork Rib Rice x2\n- Bob: Pork Rib Rice x1", reply.Text)

	reply = svc.HandleCommand(ctx, "g1", "u1", "/done", true)
	assert.Equal(t, "Order closed! Totals for Suzuran Deli:\n- Pork Rib Rice: 3", reply.Text)

	// The ledger kept both rows and the summary event went out.
	assert.Len(t, led.rows, 2)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "g1", pub.events[0].GroupKey)
	assert.Equal(t, []session.SummaryLine{{Item: "Pork Rib Rice", Quantity: 3}}, pub.events[0].Lines)

	// The session is gone.
	reply = svc.HandleCommand(ctx, "g1", "u1", "/list", true)
	assert.Equal(t, "No orders yet.", reply.Text)
}

func TestHandleCommand_StartTwice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	reply := svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	assert.Contains(t, reply.Text, "already in progress")
}

func TestHandleCommand_JoinBeforeSelect(t *testing.T) {
	svc, led, _ := newTestService(t)
	ctx := context.Background()

	reply := svc.HandleCommand(ctx, "g1", "u1", "/join Pork Rib Rice 1", true)
	assert.Contains(t, reply.Text, "pick a restaurant")

	svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	reply = svc.HandleCommand(ctx, "g1", "u1", "/join Pork Rib Rice 1", true)
	assert.Contains(t, reply.Text, "pick a restaurant")
	assert.Empty(t, led.rows)
}

func TestHandleCommand_MalformedJoin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	svc.HandleCommand(ctx, "g1", "u1", "/restaurant Suzuran Deli", true)

	for _, text := range []string{"/join", "/join noodles", "/join noodles zero", "/join noodles 0"} {
		reply := svc.HandleCommand(ctx, "g1", "u1", text, true)
		assert.Contains(t, reply.Text, "/join <item> <quantity>", "input: %s", text)
	}
}

func TestHandleCommand_SelectUnknownRestaurant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	reply := svc.HandleCommand(ctx, "g1", "u1", "/restaurant Nowhere", true)
	assert.Contains(t, reply.Text, `No restaurant named "Nowhere"`)
}

func TestHandleCommand_CloseWithoutSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	reply := svc.HandleCommand(context.Background(), "g1", "u1", "/done", true)
	assert.Equal(t, "There is no group order in progress.", reply.Text)
}

func TestHandleCommand_CloseEmptySession(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	reply := svc.HandleCommand(ctx, "g1", "u1", "/done", true)
	assert.Equal(t, "Order closed. Nobody ordered anything.", reply.Text)
	assert.Empty(t, pub.events)

	// Session deleted: a fresh /order works.
	reply = svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	assert.Contains(t, reply.Text, "Pick a restaurant")
}

func TestHandleCommand_ListRestaurants(t *testing.T) {
	svc, _, _ := newTestService(t)

	reply := svc.HandleCommand(context.Background(), "g1", "u1", "/restaurants", true)
	assert.Equal(t, "Available restaurants:\n1. Suzuran Deli\n2. 285 Bento", reply.Text)
}

func TestHandleCommand_RecommendForUser(t *testing.T) {
	svc, led, _ := newTestService(t)
	ctx := context.Background()

	reply := svc.HandleCommand(ctx, "u1", "u1", "/recommend", false)
	assert.Contains(t, reply.Text, "No order history yet")

	led.rows = []models.LedgerRow{
		{UserID: "u1", Item: "Pork Rib Rice", Quantity: 1, CreatedAt: time.Now()},
		{UserID: "u1", Item: "Pork Rib Rice", Quantity: 1, CreatedAt: time.Now()},
		{UserID: "u1", Item: "Chicken Cutlet Rice", Quantity: 1, CreatedAt: time.Now()},
	}
	reply = svc.HandleCommand(ctx, "u1", "u1", "/recommend", false)
	assert.Equal(t, "Based on your order history, you might like:\n- Pork Rib Rice (ordered 2 times)\n- Chicken Cutlet Rice (ordered 1 times)", reply.Text)

	// A user with no rows sees the global fallback.
	reply = svc.HandleCommand(ctx, "u9", "u9", "/recommend", false)
	assert.Contains(t, reply.Text, "Popular with everyone")
}

func TestHandleCommand_RecommendForGroup(t *testing.T) {
	svc, led, _ := newTestService(t)
	ctx := context.Background()

	reply := svc.HandleCommand(ctx, "g1", "u1", "/recommend", true)
	assert.Contains(t, reply.Text, "Nobody has ordered recently")

	led.rows = []models.LedgerRow{
		{UserID: "u2", Item: "Braised Pork Bento", Quantity: 1, CreatedAt: time.Now()},
	}
	reply = svc.HandleCommand(ctx, "g1", "u1", "/recommend", true)
	assert.Equal(t, "Popular with the group lately:\n- Braised Pork Bento (ordered 1 times)", reply.Text)
}

func TestHandleCommand_RecommendAtRestaurant(t *testing.T) {
	svc, led, _ := newTestService(t)
	ctx := context.Background()

	led.rows = []models.LedgerRow{
		{UserID: "u1", Item: "Pork Rib Rice", Quantity: 1, CreatedAt: time.Now()},
		{UserID: "u1", Item: "Off Menu Special", Quantity: 1, CreatedAt: time.Now()},
	}

	reply := svc.HandleCommand(ctx, "u1", "u1", "/recommend Suzuran Deli", false)
	assert.Equal(t, `Based on your history at "Suzuran Deli":`+"\n- Pork Rib Rice (ordered 1 times)", reply.Text)

	reply = svc.HandleCommand(ctx, "u1", "u1", "/recommend Nowhere", false)
	assert.Contains(t, reply.Text, `No restaurant named "Nowhere"`)

	reply = svc.HandleCommand(ctx, "u2", "u2", "/recommend Suzuran Deli", false)
	assert.Contains(t, reply.Text, "no order history at")
}

func TestHandleCommand_UnknownEchoes(t *testing.T) {
	svc, _, _ := newTestService(t)

	reply := svc.HandleCommand(context.Background(), "g1", "u1", "what's for lunch?", true)
	assert.Equal(t, "You said: what's for lunch?", reply.Text)
}

func TestHandleCommand_UnresolvedNameDegrades(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.HandleCommand(ctx, "g1", "u1", "/order", true)
	svc.HandleCommand(ctx, "g1", "u1", "/restaurant 285 Bento", true)
	reply := svc.HandleCommand(ctx, "g1", "u9", "/join Braised Pork Bento 1", true)
	assert.Equal(t, "Added: unknown user ordered Braised Pork Bento x1", reply.Text)
}
