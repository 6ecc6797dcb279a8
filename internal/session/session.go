package session

// LineItem is one contribution to a live group session.
type LineItem struct {
	UserID   string
	UserName string
	Item     string
	Quantity int
}

// groupSession is the mutable state of one in-progress group order.
// Sessions are owned exclusively by the Manager's shard table and are
// only touched under the shard lock.
type groupSession struct {
	restaurantName string
	items          []LineItem
}

// View is a copy of a session's state safe to use outside the lock.
type View struct {
	RestaurantName string
	Items          []LineItem
}

// SummaryLine is one aggregated row of a closed order, quantities summed
// per item in first-seen order.
type SummaryLine struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// Summary is the result of closing a group order.
type Summary struct {
	RestaurantName string        `json:"restaurant"`
	Lines          []SummaryLine `json:"lines"`
}

// aggregate sums quantities per item, keeping first-seen item order.
func (s *groupSession) aggregate() []SummaryLine {
	index := make(map[string]int, len(s.items))
	var lines []SummaryLine
	for _, item := range s.items {
		if i, ok := index[item.Item]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.Item] = len(lines)
		lines = append(lines, SummaryLine{Item: item.Item, Quantity: item.Quantity})
	}
	return lines
}

func (s *groupSession) view() *View {
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return &View{
		RestaurantName: s.restaurantName,
		Items:          items,
	}
}
