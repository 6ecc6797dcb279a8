package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"group-order-bot/internal/models"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Command
	}{
		{"start", "/order", models.Command{Kind: models.CmdStart, Raw: "/order"}},
		{"start trims whitespace", "  /order  ", models.Command{Kind: models.CmdStart, Raw: "/order"}},
		{"select via command", "/restaurant Suzuran Deli", models.Command{Kind: models.CmdSelectRestaurant, Restaurant: "Suzuran Deli", Raw: "/restaurant Suzuran Deli"}},
		{"select via quick reply", "[restaurant] 285 Bento", models.Command{Kind: models.CmdSelectRestaurant, Restaurant: "285 Bento", Raw: "[restaurant] 285 Bento"}},
		{"select without name", "/restaurant", models.Command{Kind: models.CmdSelectRestaurant, Raw: "/restaurant"}},
		{"join", "/join Pork Rib Rice 2", models.Command{Kind: models.CmdJoin, Item: "Pork Rib Rice", Quantity: 2, Raw: "/join Pork Rib Rice 2"}},
		{"join single word item", "/join noodles 1", models.Command{Kind: models.CmdJoin, Item: "noodles", Quantity: 1, Raw: "/join noodles 1"}},
		{"join missing quantity", "/join noodles", models.Command{Kind: models.CmdJoin, Raw: "/join noodles"}},
		{"join non-numeric quantity", "/join noodles lots", models.Command{Kind: models.CmdJoin, Raw: "/join noodles lots"}},
		{"join bare", "/join", models.Command{Kind: models.CmdJoin, Raw: "/join"}},
		{"join negative quantity parses", "/join noodles -1", models.Command{Kind: models.CmdJoin, Item: "noodles", Quantity: -1, Raw: "/join noodles -1"}},
		{"list", "/list", models.Command{Kind: models.CmdList, Raw: "/list"}},
		{"close", "/done", models.Command{Kind: models.CmdClose, Raw: "/done"}},
		{"restaurants", "/restaurants", models.Command{Kind: models.CmdListRestaurants, Raw: "/restaurants"}},
		{"recommend", "/recommend", models.Command{Kind: models.CmdRecommend, Raw: "/recommend"}},
		{"recommend at restaurant", "/recommend Suzuran Deli", models.Command{Kind: models.CmdRecommend, Restaurant: "Suzuran Deli", Raw: "/recommend Suzuran Deli"}},
		{"unknown", "hello there", models.Command{Kind: models.CmdUnknown, Raw: "hello there"}},
		{"unknown slash", "/nope", models.Command{Kind: models.CmdUnknown, Raw: "/nope"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCommand(tc.text))
		})
	}
}
