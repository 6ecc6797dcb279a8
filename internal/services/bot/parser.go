package bot

import (
	"strconv"
	"strings"

	"group-order-bot/internal/models"
)

// selectPrefix is the quick-reply form of restaurant selection; tapping
// a suggestion sends "[restaurant] <name>".
const selectPrefix = "[restaurant]"

// ParseCommand turns one raw chat message into a typed command. Parsing
// happens exactly once, here; everything downstream works on the variant
// set.
func ParseCommand(text string) models.Command {
	text = strings.TrimSpace(text)

	switch {
	case text == "/order":
		return models.Command{Kind: models.CmdStart, Raw: text}

	case strings.HasPrefix(text, selectPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(text, selectPrefix))
		return models.Command{Kind: models.CmdSelectRestaurant, Restaurant: name, Raw: text}

	case text == "/restaurant" || strings.HasPrefix(text, "/restaurant "):
		name := strings.TrimSpace(strings.TrimPrefix(text, "/restaurant"))
		return models.Command{Kind: models.CmdSelectRestaurant, Restaurant: name, Raw: text}

	case text == "/join" || strings.HasPrefix(text, "/join "):
		return parseJoin(text)

	case text == "/list":
		return models.Command{Kind: models.CmdList, Raw: text}

	case text == "/done":
		return models.Command{Kind: models.CmdClose, Raw: text}

	case text == "/restaurants":
		return models.Command{Kind: models.CmdListRestaurants, Raw: text}

	case text == "/recommend":
		return models.Command{Kind: models.CmdRecommend, Raw: text}

	case strings.HasPrefix(text, "/recommend "):
		name := strings.TrimSpace(strings.TrimPrefix(text, "/recommend"))
		return models.Command{Kind: models.CmdRecommend, Restaurant: name, Raw: text}

	default:
		return models.Command{Kind: models.CmdUnknown, Raw: text}
	}
}

// parseJoin parses "/join <item> <quantity>". Menu items may contain
// spaces, so everything between the command and the trailing number is
// the item. A join that does not parse keeps zero values and is
// rejected by the session manager as malformed.
func parseJoin(text string) models.Command {
	cmd := models.Command{Kind: models.CmdJoin, Raw: text}

	fields := strings.Fields(text)
	if len(fields) < 3 {
		return cmd
	}

	qty, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return cmd
	}

	cmd.Item = strings.Join(fields[1:len(fields)-1], " ")
	cmd.Quantity = qty
	return cmd
}
