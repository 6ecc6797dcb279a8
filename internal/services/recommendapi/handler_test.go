package recommendapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/metrics"
	"group-order-bot/internal/models"
	"group-order-bot/internal/recommend"
)

type fakeCatalog struct {
	menus map[string]map[string]float64
}

func (f *fakeCatalog) ListActiveRestaurants(ctx context.Context) ([]models.RestaurantRef, error) {
	return nil, nil
}

func (f *fakeCatalog) GetMenuByName(ctx context.Context, name string) (map[string]float64, error) {
	menu, ok := f.menus[name]
	if !ok {
		return nil, catalog.ErrRestaurantNotFound
	}
	return menu, nil
}

type fakeLedger struct {
	rows []models.LedgerRow
}

func (f *fakeLedger) Append(ctx context.Context, userID, restaurantName, item string, quantity int) error {
	return nil
}

func (f *fakeLedger) QueryByUser(ctx context.Context, userID string) ([]models.LedgerRow, error) {
	var out []models.LedgerRow
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) QueryRecent(ctx context.Context, windowDays int) ([]models.LedgerRow, error) {
	return f.rows, nil
}

func (f *fakeLedger) QueryAll(ctx context.Context) ([]models.LedgerRow, error) {
	return f.rows, nil
}

type fakePinger struct{}

func (fakePinger) Ping(ctx context.Context) error { return nil }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	led := &fakeLedger{rows: []models.LedgerRow{
		{UserID: "u1", Item: "Pork Rib Rice", Quantity: 1, CreatedAt: time.Now()},
		{UserID: "u1", Item: "Pork Rib Rice", Quantity: 1, CreatedAt: time.Now()},
		{UserID: "u1", Item: "Off Menu Special", Quantity: 1, CreatedAt: time.Now()},
	}}
	cat := &fakeCatalog{menus: map[string]map[string]float64{
		"Suzuran Deli": {"Pork Rib Rice": 70, "Chicken Cutlet Rice": 75},
		"Empty":        {},
	}}

	log := logger.New("test")
	engine := recommend.NewEngine(led, cat, log, recommend.Options{})
	return NewHandler(NewService(engine, log), fakePinger{}, metrics.NewRegistry(), log)
}

func postRecommend(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Recommend(rec, req)
	return rec
}

func TestRecommend_Success(t *testing.T) {
	h := newTestHandler(t)
	rec := postRecommend(t, h, `{"user_id": "u1", "restaurant_name": "Suzuran Deli"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "Suzuran Deli", resp.Restaurant)
	assert.Equal(t, []models.ItemCount{{Item: "Pork Rib Rice", Count: 2}}, resp.Recommendations)
}

func TestRecommend_MissingFields(t *testing.T) {
	h := newTestHandler(t)

	rec := postRecommend(t, h, `{"user_id": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postRecommend(t, h, `{"restaurant_name": "Suzuran Deli"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommend_UnknownRestaurant(t *testing.T) {
	h := newTestHandler(t)
	rec := postRecommend(t, h, `{"user_id": "u1", "restaurant_name": "Nowhere"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommend_EmptyMenuAndNoHistory(t *testing.T) {
	h := newTestHandler(t)

	rec := postRecommend(t, h, `{"user_id": "u1", "restaurant_name": "Empty"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, "no menu")

	rec = postRecommend(t, h, `{"user_id": "u2", "restaurant_name": "Suzuran Deli"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, "no order history")
}

func TestRecommend_BadMethodAndBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recommend", nil)
	rec := httptest.NewRecorder()
	h.Recommend(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = postRecommend(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postRecommend(t, h, `{"user_id": "u1", "restaurant_name": "Suzuran Deli", "extra": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
