package models

// CommandKind identifies one of the closed set of chat commands.
type CommandKind string

const (
	CmdStart            CommandKind = "start"
	CmdSelectRestaurant CommandKind = "select_restaurant"
	CmdJoin             CommandKind = "join"
	CmdList             CommandKind = "list"
	CmdClose            CommandKind = "close"
	CmdListRestaurants  CommandKind = "list_restaurants"
	CmdRecommend        CommandKind = "recommend"
	CmdUnknown          CommandKind = "unknown"
)

// Command is the typed form of one inbound chat message, produced by
// parsing the raw text exactly once at the boundary.
type Command struct {
	Kind CommandKind

	// Restaurant is set for select-restaurant and restaurant-scoped
	// recommend commands.
	Restaurant string

	// Item and Quantity are set for join commands. A join that did not
	// parse cleanly keeps Item empty / Quantity zero and is rejected
	// downstream as malformed.
	Item     string
	Quantity int

	// Raw is the original message text, kept for the unknown-command echo.
	Raw string
}

// Reply is the outcome of handling one command: the text to send back,
// plus optional quick-reply suggestions for the chat surface.
type Reply struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions,omitempty"`
}
