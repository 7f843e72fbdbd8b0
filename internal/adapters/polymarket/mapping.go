package polymarket

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
func mapGammaMarket(gm gammaMarket) domain.Market {
	m := domain.Market{
		ID:            gm.ID,
		ConditionID:   gm.ConditionID,
		Question:      gm.Question,
		Slug:          gm.Slug,
		Probability:   numberOrZero(gm.LastTradePrice),
		BestBid:       numberOrZero(gm.BestBid),
		BestAsk:       numberOrZero(gm.BestAsk),
		Volume24h:     numberOrZero(gm.Volume24h),
		OneDayChange:  numberOrZero(gm.OneDayChange),
		OneWeekChange: numberOrZero(gm.OneWeekChange),
		Active:        gm.Active,
		Closed:        gm.Closed,
	}

	if gm.EndDate != "" {
		// Polymarket usa varios formatos; intentamos los más comunes
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, gm.EndDate); err == nil {
				m.EndDate = t.UTC()
				break
			}
		}
	}
	return m
}

// mapDataTrade convierte un rawDataTrade a domain.WalletTrade.
func mapDataTrade(rt rawDataTrade) domain.WalletTrade {
	price, _ := rt.Price.Float64()
	size, _ := rt.Size.Float64()

	return domain.WalletTrade{
		MarketID: rt.ConditionID,
		Slug:     rt.Slug,
		TradeRecord: domain.TradeRecord{
			Trader:  rt.ProxyWallet,
			Side:    rt.Side,
			Outcome: rt.Outcome,
			Size:    size,
			Price:   price,
			Time:    parseTradeTimestamp(rt.Timestamp),
		},
	}
}

// parseTradeTimestamp acepta unix seconds, unix millis, floats e ISO.
func parseTradeTimestamp(n json.Number) time.Time {
	s := n.String()
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return time.Unix(sec/1000, (sec%1000)*int64(time.Millisecond))
		}
		return time.Unix(sec, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec)
	}
	for _, layout := range []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// numberOrZero convierte un json.Number a float64, con 0 como fallback.
func numberOrZero(n json.Number) float64 {
	if n == "" {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}
