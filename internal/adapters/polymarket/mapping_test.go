package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyrank/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyrank/internal/domain"
)

func newFixtureServer(t *testing.T, fixture string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// solo la primera página lleva datos; las siguientes van vacías
		if r.URL.Query().Get("offset") != "0" && r.URL.Query().Get("offset") != "" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(fixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchActiveMarkets_Mapping(t *testing.T) {
	fixture := `[{
		"id": "501234",
		"conditionId": "0xabc",
		"question": "Will BTC close above 100k?",
		"slug": "btc-above-100k",
		"endDate": "2026-09-15T12:00:00Z",
		"lastTradePrice": "0.965",
		"bestBid": "0.96",
		"bestAsk": "0.97",
		"volume24hr": "1250000.5",
		"oneDayPriceChange": "0.05",
		"oneWeekPriceChange": "-0.02",
		"active": true,
		"closed": false
	}]`

	srv := newFixtureServer(t, fixture)
	client := polymarket.NewClient(srv.URL, srv.URL)

	markets, err := client.FetchActiveMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, "501234", m.ID)
	assert.Equal(t, "0xabc", m.ConditionID)
	assert.Equal(t, "btc-above-100k", m.Slug)
	assert.InDelta(t, 0.965, m.Probability, 1e-9)
	assert.InDelta(t, 0.96, m.BestBid, 1e-9)
	assert.InDelta(t, 0.97, m.BestAsk, 1e-9)
	assert.InDelta(t, 1_250_000.5, m.Volume24h, 1e-6)
	assert.InDelta(t, 0.05, m.OneDayChange, 1e-9)
	assert.InDelta(t, -0.02, m.OneWeekChange, 1e-9)
	assert.Equal(t, time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC), m.EndDate)
	assert.True(t, m.Active)
}

func TestFetchActiveMarkets_MissingFieldsDefaultToZero(t *testing.T) {
	fixture := `[{
		"id": "7",
		"conditionId": "0xdef",
		"question": "q",
		"slug": "s",
		"active": true,
		"closed": false
	}]`

	srv := newFixtureServer(t, fixture)
	client := polymarket.NewClient(srv.URL, srv.URL)

	markets, err := client.FetchActiveMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, 0.0, m.Probability)
	assert.Equal(t, 0.0, m.Volume24h)
	assert.True(t, m.EndDate.IsZero())
}

func TestFetchTradesByUser_Mapping(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	fixture := `[{
		"proxyWallet": "0xAAA",
		"conditionId": "0xabc",
		"slug": "btc-above-100k",
		"side": "BUY",
		"outcome": "Yes",
		"size": "5000",
		"price": "0.95",
		"timestamp": ` + timestampJSON(now.Add(-time.Hour)) + `
	}, {
		"proxyWallet": "0xAAA",
		"conditionId": "0xdef",
		"slug": "older-market",
		"side": "SELL",
		"outcome": "No",
		"size": "100",
		"price": "0.30",
		"timestamp": ` + timestampJSON(now.Add(-72*time.Hour)) + `
	}]`

	srv := newFixtureServer(t, fixture)
	client := polymarket.NewClient(srv.URL, srv.URL)

	// la ventana de 48h deja fuera el trade de hace 72h
	trades, err := client.FetchTradesByUser(context.Background(), "0xAAA", now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, "0xabc", tr.MarketID)
	assert.Equal(t, "0xAAA", tr.Trader)
	assert.Equal(t, "BUY", tr.Side)
	assert.Equal(t, "Yes", tr.Outcome)
	assert.InDelta(t, 5000.0, tr.Size, 1e-9)
	assert.InDelta(t, 0.95, tr.Price, 1e-9)
	assert.True(t, tr.Time.Equal(now.Add(-time.Hour)))

	dir, err := tr.Direction()
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionBullish, dir)
}

func TestFetchActiveMarkets_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	client := polymarket.NewClient(srv.URL, srv.URL)
	_, err := client.FetchActiveMarkets(context.Background(), 10)
	assert.Error(t, err)
}

func timestampJSON(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
