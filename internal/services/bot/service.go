// Package bot implements the chat-facing command service: one typed
// command in, one reply out.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/messaging"
	"group-order-bot/internal/metrics"
	"group-order-bot/internal/models"
	"group-order-bot/internal/platform"
	"group-order-bot/internal/recommend"
	"group-order-bot/internal/session"
)

// EventPublisher publishes closed-order summaries. Satisfied by
// messaging.Publisher.
type EventPublisher interface {
	PublishOrderClosed(ctx context.Context, event messaging.OrderClosedEvent) error
}

// Service handles parsed chat commands. Every classified failure maps to
// an informational reply; nothing here panics the handling process.
type Service struct {
	sessions  *session.Manager
	catalog   catalog.Store
	engine    *recommend.Engine
	names     platform.NameResolver
	publisher EventPublisher
	metrics   *metrics.Registry
	logger    *logger.Logger
}

// NewService creates the command service. publisher may be nil when the
// broker is not configured; summaries are then only logged.
func NewService(
	sessions *session.Manager,
	cat catalog.Store,
	engine *recommend.Engine,
	names platform.NameResolver,
	publisher EventPublisher,
	m *metrics.Registry,
	log *logger.Logger,
) *Service {
	return &Service{
		sessions:  sessions,
		catalog:   cat,
		engine:    engine,
		names:     names,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

// HandleCommand parses and executes one inbound chat message and returns
// the reply to deliver. groupKey scopes the session (the group id in
// group chats, the user id in one-on-one chats).
func (s *Service) HandleCommand(ctx context.Context, groupKey, userID, text string, isGroup bool) models.Reply {
	cmd := ParseCommand(text)
	s.metrics.CommandsHandled.WithLabelValues(string(cmd.Kind)).Inc()

	switch cmd.Kind {
	case models.CmdStart:
		return s.startOrder(ctx, groupKey)
	case models.CmdSelectRestaurant:
		return s.selectRestaurant(ctx, groupKey, cmd.Restaurant)
	case models.CmdJoin:
		return s.joinOrder(ctx, groupKey, userID, isGroup, cmd)
	case models.CmdList:
		return s.listOrders(groupKey)
	case models.CmdClose:
		return s.closeOrder(ctx, groupKey)
	case models.CmdListRestaurants:
		return s.listRestaurants(ctx)
	case models.CmdRecommend:
		return s.recommend(ctx, userID, cmd.Restaurant, isGroup)
	default:
		return models.Reply{Text: fmt.Sprintf("You said: %s", cmd.Raw)}
	}
}

func (s *Service) startOrder(ctx context.Context, groupKey string) models.Reply {
	if err := s.sessions.StartOrder(groupKey); err != nil {
		return models.Reply{Text: "A group order is already in progress. Close it with /done or check it with /list."}
	}

	reply := models.Reply{Text: "Group order started! Pick a restaurant:"}
	restaurants, err := s.catalog.ListActiveRestaurants(ctx)
	if err != nil {
		s.logger.Error("catalog_list_failed", "Failed to list restaurants", "", err, nil)
		reply.Text += "\nUse /restaurants to see the options."
		return reply
	}
	for _, r := range restaurants {
		reply.Suggestions = append(reply.Suggestions, fmt.Sprintf("%s %s", selectPrefix, r.Name))
	}
	return reply
}

func (s *Service) selectRestaurant(ctx context.Context, groupKey, name string) models.Reply {
	menu, err := s.sessions.SelectRestaurant(ctx, groupKey, name)
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		return models.Reply{Text: "Start a group order with /order first."}
	case errors.Is(err, catalog.ErrRestaurantNotFound):
		return models.Reply{Text: fmt.Sprintf("No restaurant named %q. Use /restaurants to see the options.", name)}
	case err != nil:
		return s.unexpected("select_restaurant_failed", err)
	}

	return models.Reply{Text: fmt.Sprintf(
		"Restaurant %q selected!\n\n%s\n\nJoin with /join <item> <quantity>",
		name, formatMenu(name, menu),
	)}
}

func (s *Service) joinOrder(ctx context.Context, groupKey, userID string, isGroup bool, cmd models.Command) models.Reply {
	groupID := ""
	if isGroup {
		groupID = groupKey
	}
	userName := s.names.Resolve(ctx, userID, groupID)

	err := s.sessions.JoinOrder(ctx, groupKey, userID, userName, cmd.Item, cmd.Quantity)
	switch {
	case errors.Is(err, session.ErrNoActiveRestaurant):
		return models.Reply{Text: "Start with /order and pick a restaurant before joining."}
	case errors.Is(err, session.ErrMalformedJoinCommand):
		return models.Reply{Text: "Could not read that. Use /join <item> <quantity>, e.g. /join Pork Rib Rice 1"}
	case err != nil:
		return s.unexpected("join_order_failed", err)
	}

	return models.Reply{Text: fmt.Sprintf("Added: %s ordered %s x%d", userName, cmd.Item, cmd.Quantity)}
}

func (s *Service) listOrders(groupKey string) models.Reply {
	view := s.sessions.ListOrders(groupKey)
	if view == nil || len(view.Items) == 0 {
		return models.Reply{Text: "No orders yet."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current order (%s):\n", view.RestaurantName)
	for _, item := range view.Items {
		fmt.Fprintf(&b, "- %s: %s x%d\n", item.UserName, item.Item, item.Quantity)
	}
	return models.Reply{Text: strings.TrimRight(b.String(), "\n")}
}

func (s *Service) closeOrder(ctx context.Context, groupKey string) models.Reply {
	summary, err := s.sessions.CloseOrder(groupKey)
	if err != nil {
		return models.Reply{Text: "There is no group order in progress."}
	}

	if len(summary.Lines) == 0 {
		return models.Reply{Text: "Order closed. Nobody ordered anything."}
	}

	s.publishSummary(ctx, groupKey, summary)

	var b strings.Builder
	fmt.Fprintf(&b, "Order closed! Totals for %s:\n", summary.RestaurantName)
	for _, line := range summary.Lines {
		fmt.Fprintf(&b, "- %s: %d\n", line.Item, line.Quantity)
	}
	return models.Reply{Text: strings.TrimRight(b.String(), "\n")}
}

// publishSummary is best-effort, mirroring the ledger-write semantics:
// the chat reply never waits on the broker being healthy.
func (s *Service) publishSummary(ctx context.Context, groupKey string, summary *session.Summary) {
	if s.publisher == nil {
		return
	}
	event := messaging.OrderClosedEvent{
		GroupKey:   groupKey,
		Restaurant: summary.RestaurantName,
		Lines:      summary.Lines,
		ClosedAt:   time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderClosed(ctx, event); err != nil {
		s.logger.Error("summary_publish_failed", "Failed to publish order summary", "", err, map[string]interface{}{
			"group_key": groupKey,
		})
	}
}

func (s *Service) listRestaurants(ctx context.Context) models.Reply {
	restaurants, err := s.catalog.ListActiveRestaurants(ctx)
	if err != nil {
		return s.unexpected("catalog_list_failed", err)
	}
	if len(restaurants) == 0 {
		return models.Reply{Text: "No restaurants available right now."}
	}

	var b strings.Builder
	b.WriteString("Available restaurants:\n")
	for i, r := range restaurants {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Name)
	}
	return models.Reply{Text: strings.TrimRight(b.String(), "\n")}
}

func (s *Service) recommend(ctx context.Context, userID, restaurantName string, isGroup bool) models.Reply {
	if restaurantName != "" {
		return s.recommendAtRestaurant(ctx, userID, restaurantName)
	}
	if isGroup {
		return s.recommendForGroup(ctx)
	}
	return s.recommendForUser(ctx, userID)
}

func (s *Service) recommendForUser(ctx context.Context, userID string) models.Reply {
	items, source, err := s.engine.ForUser(ctx, userID)
	switch {
	case errors.Is(err, recommend.ErrNoHistoryAvailable):
		return models.Reply{Text: "No order history yet. Try /join to place your first order!"}
	case err != nil:
		return s.unexpected("recommend_user_failed", err)
	}

	header := "Based on your order history, you might like:"
	if source == recommend.SourceGlobal {
		header = "Popular with everyone, you might like:"
	}
	return models.Reply{Text: formatItemCounts(header, items)}
}

func (s *Service) recommendForGroup(ctx context.Context) models.Reply {
	items, err := s.engine.ForGroup(ctx)
	switch {
	case errors.Is(err, recommend.ErrNoRecentActivity):
		return models.Reply{Text: "Nobody has ordered recently. Start a group order with /order!"}
	case err != nil:
		return s.unexpected("recommend_group_failed", err)
	}
	return models.Reply{Text: formatItemCounts("Popular with the group lately:", items)}
}

func (s *Service) recommendAtRestaurant(ctx context.Context, userID, restaurantName string) models.Reply {
	items, err := s.engine.ForUserAtRestaurant(ctx, userID, restaurantName)
	switch {
	case errors.Is(err, catalog.ErrRestaurantNotFound):
		return models.Reply{Text: fmt.Sprintf("No restaurant named %q. Use /restaurants to see the options.", restaurantName)}
	case errors.Is(err, recommend.ErrEmptyMenu):
		return models.Reply{Text: fmt.Sprintf("%q has no menu right now.", restaurantName)}
	case errors.Is(err, recommend.ErrNoMatchingHistory):
		return models.Reply{Text: fmt.Sprintf("You have no order history at %q yet.", restaurantName)}
	case err != nil:
		return s.unexpected("recommend_restaurant_failed", err)
	}
	header := fmt.Sprintf("Based on your history at %q:", restaurantName)
	return models.Reply{Text: formatItemCounts(header, items)}
}

func (s *Service) unexpected(action string, err error) models.Reply {
	s.logger.Error(action, "Unexpected error handling command", "", err, nil)
	return models.Reply{Text: "Something went wrong, please try again."}
}

func formatItemCounts(header string, items []models.ItemCount) string {
	var b strings.Builder
	b.WriteString(header)
	for _, it := range items {
		fmt.Fprintf(&b, "\n- %s (ordered %d times)", it.Item, it.Count)
	}
	return b.String()
}

// formatMenu renders a menu alphabetically so replies are deterministic.
func formatMenu(name string, menu map[string]float64) string {
	items := make([]string, 0, len(menu))
	for item := range menu {
		items = append(items, item)
	}
	sort.Strings(items)

	var b strings.Builder
	fmt.Fprintf(&b, "Menu for %s:", name)
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s: %.0f", item, menu[item])
	}
	return b.String()
}
