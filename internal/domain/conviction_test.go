package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newConvictionScorer(t *testing.T, cfg ConvictionConfig) *ConvictionScorer {
	t.Helper()
	s, err := NewConvictionScorer(cfg)
	require.NoError(t, err)
	return s
}

func trade(trader, side, outcome string, size, price, hoursAgo float64) TradeRecord {
	return TradeRecord{
		Trader:  trader,
		Side:    side,
		Outcome: outcome,
		Size:    size,
		Price:   price,
		Time:    anchor.Add(-time.Duration(hoursAgo * float64(time.Hour))),
	}
}

func cluster(trades ...TradeRecord) TradeCluster {
	return TradeCluster{MarketID: "0xabc", Slug: "btc-above-100k", Trades: trades}
}

func TestConvictionScorer_EmptyClusterIsAnError(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	_, err := s.Score(cluster(), anchor, DirectionNeutral)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyCluster)
}

func TestConvictionScorer_MalformedSideIsAnError(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	c := cluster(trade("0xAAA", "HODL", "Yes", 1000, 0.9, 1))
	_, err := s.Score(c, anchor, DirectionNeutral)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestConvictionScorer_ConsensusBeatsSingleTrader(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	// mismo notional total: tres traders de $2k frente a uno de $6k
	three := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 3),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 2),
		trade("0xCCC", "BUY", "Yes", 2000, 0.90, 1),
	)
	one := cluster(trade("0xAAA", "BUY", "Yes", 6000, 0.90, 1))

	bThree, err := s.Score(three, anchor, DirectionNeutral)
	require.NoError(t, err)
	bOne, err := s.Score(one, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Equal(t, 3, bThree.AgreeingTraders)
	assert.Equal(t, 1, bOne.AgreeingTraders)
	assert.Greater(t, bThree.Total, bOne.Total)
}

func TestConvictionScorer_ReattributingTradesOnlyChangesConsensus(t *testing.T) {
	cfg := DefaultConvictionConfig()
	s := newConvictionScorer(t, cfg)

	// trades idénticos en tamaño, precio y recencia: solo cambia quién los firma
	spread := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 3),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 2),
		trade("0xCCC", "BUY", "Yes", 2000, 0.90, 1),
	)
	solo := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 3),
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 2),
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 1),
	)

	bSpread, err := s.Score(spread, anchor, DirectionNeutral)
	require.NoError(t, err)
	bSolo, err := s.Score(solo, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Greater(t, bSpread.Total, bSolo.Total)
	// la convicción por trade es idéntica: el cociente es exactamente el
	// multiplicador de consenso base^(3-1)
	require.Greater(t, bSolo.Total, 0.0)
	ratio := bSpread.Total / bSolo.Total
	assert.InDelta(t, cfg.ConsensusBase*cfg.ConsensusBase, ratio, 1e-9)
}

func TestConvictionScorer_RepeatTraderIsNotConsensus(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	// el mismo wallet dos veces (con distinta capitalización) cuenta una vez
	c := cluster(
		trade("0xAaA", "BUY", "Yes", 2000, 0.90, 2),
		trade("0xaaa", "BUY", "Yes", 2000, 0.90, 1),
	)
	b, err := s.Score(c, anchor, DirectionNeutral)
	require.NoError(t, err)
	assert.Equal(t, 1, b.AgreeingTraders)
}

func TestConvictionScorer_ExactTieIsNeutralZero(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	// trades espejo: mismo tamaño, precio y recencia en ambos lados
	c := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 2),
		trade("0xBBB", "SELL", "Yes", 2000, 0.90, 2),
	)
	b, err := s.Score(c, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Equal(t, 0.0, b.Total)
	assert.Equal(t, DirectionNeutral, b.Direction)
}

func TestConvictionScorer_RecencyDecay(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	recent := cluster(trade("0xAAA", "BUY", "Yes", 5000, 0.90, 1))
	stale := cluster(trade("0xAAA", "BUY", "Yes", 5000, 0.90, 24))

	bRecent, err := s.Score(recent, anchor, DirectionNeutral)
	require.NoError(t, err)
	bStale, err := s.Score(stale, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Greater(t, bRecent.Total, bStale.Total)
	// con half-life de 6h, 24h significan cuatro vidas medias
	assert.Less(t, bStale.Total, bRecent.Total*0.1)
}

func TestConvictionScorer_FutureTimestampCountsAsNow(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	future := cluster(trade("0xAAA", "BUY", "Yes", 5000, 0.90, -2))
	now := cluster(trade("0xAAA", "BUY", "Yes", 5000, 0.90, 0))

	bFuture, err := s.Score(future, anchor, DirectionNeutral)
	require.NoError(t, err)
	bNow, err := s.Score(now, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.InDelta(t, bNow.Total, bFuture.Total, 1e-9)
}

func TestConvictionScorer_ClusteringBonus(t *testing.T) {
	cfg := DefaultConvictionConfig()
	cfg.HalfLifeHours = 1e6 // neutraliza la recencia para aislar el clustering
	s := newConvictionScorer(t, cfg)

	clustered := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 10),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 9.5),
	)
	spread := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 10),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 4),
	)

	bClustered, err := s.Score(clustered, anchor, DirectionNeutral)
	require.NoError(t, err)
	bSpread, err := s.Score(spread, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Greater(t, bClustered.Total, bSpread.Total)
	assert.InDelta(t, 1.3, bClustered.Total/bSpread.Total, 0.001)
}

func TestConvictionScorer_VolatilityDampens(t *testing.T) {
	base := DefaultConvictionConfig()
	damped := newConvictionScorer(t, base)

	undampedCfg := base
	undampedCfg.VolatilityDampingMax = 0
	undamped := newConvictionScorer(t, undampedCfg)

	// precios irregulares: un salto grande y uno nulo disparan la std dev
	choppy := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 3),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 2),
		trade("0xCCC", "BUY", "Yes", 2000, 0.60, 1),
	)

	bDamped, err := damped.Score(choppy, anchor, DirectionNeutral)
	require.NoError(t, err)
	bUndamped, err := undamped.Score(choppy, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Less(t, bDamped.Total, bUndamped.Total)
	// la reducción nunca supera el máximo configurado (50%)
	assert.GreaterOrEqual(t, bDamped.Total, bUndamped.Total*0.5)
}

func TestConvictionScorer_StablePricesNotDamped(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	stable := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 3),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 2),
	)
	b, err := s.Score(stable, anchor, DirectionNeutral)
	require.NoError(t, err)
	assert.Greater(t, b.Total, 0.0)
}

func TestConvictionScorer_ExtremePricesScoreHigher(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	extreme := cluster(trade("0xAAA", "BUY", "Yes", 5000, 0.95, 1))
	mid := cluster(trade("0xAAA", "BUY", "Yes", 5000, 0.55, 1))

	bExtreme, err := s.Score(extreme, anchor, DirectionNeutral)
	require.NoError(t, err)
	bMid, err := s.Score(mid, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.Greater(t, bExtreme.Total, bMid.Total)
}

func TestConvictionScorer_DirectionHintScoresThatSideOnly(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	// lado bullish claramente dominante
	c := cluster(
		trade("0xAAA", "BUY", "Yes", 5000, 0.90, 1),
		trade("0xBBB", "BUY", "Yes", 5000, 0.90, 1),
		trade("0xCCC", "SELL", "Yes", 500, 0.90, 1),
	)

	bNeutral, err := s.Score(c, anchor, DirectionNeutral)
	require.NoError(t, err)
	bBull, err := s.Score(c, anchor, DirectionBullish)
	require.NoError(t, err)
	bBear, err := s.Score(c, anchor, DirectionBearish)
	require.NoError(t, err)

	assert.Equal(t, DirectionBullish, bNeutral.Direction)
	assert.Equal(t, DirectionBullish, bBull.Direction)
	assert.Equal(t, DirectionBearish, bBear.Direction)

	// el hint bullish ignora el lado bearish: puntúa más que el neto
	assert.Greater(t, bBull.Total, bNeutral.Total)
	assert.Greater(t, bBull.Total, bBear.Total)
}

func TestConvictionScorer_LogSizeScaling(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	small := cluster(trade("0xAAA", "BUY", "Yes", 10_000, 0.90, 1))
	whale := cluster(trade("0xAAA", "BUY", "Yes", 1_000_000, 0.90, 1))

	bSmall, err := s.Score(small, anchor, DirectionNeutral)
	require.NoError(t, err)
	bWhale, err := s.Score(whale, anchor, DirectionNeutral)
	require.NoError(t, err)

	// la ballena pesa más, pero ni de lejos 100× más
	assert.Greater(t, bWhale.Total, bSmall.Total)
	assert.Less(t, bWhale.Total, bSmall.Total*10)
}

func TestConvictionScorer_ScoreBounded(t *testing.T) {
	s := newConvictionScorer(t, DefaultConvictionConfig())

	// cluster enorme y coordinado: el clamp mantiene el score en [0,100]
	trades := make([]TradeRecord, 0, 10)
	for i := 0; i < 10; i++ {
		trades = append(trades, trade(string(rune('a'+i)), "BUY", "Yes", 500_000, 0.97, float64(9-i)*0.1))
	}
	b, err := s.Score(TradeCluster{MarketID: "0xbig", Trades: trades}, anchor, DirectionNeutral)
	require.NoError(t, err)

	assert.LessOrEqual(t, b.Total, 100.0)
	assert.GreaterOrEqual(t, b.Total, 0.0)
}

func TestConvictionScorer_LinearConsensusMode(t *testing.T) {
	cfg := DefaultConvictionConfig()
	cfg.ConsensusMode = ConsensusLinear
	cfg.ConsensusGrowth = 0.5
	s := newConvictionScorer(t, cfg)

	c := cluster(
		trade("0xAAA", "BUY", "Yes", 2000, 0.90, 1),
		trade("0xBBB", "BUY", "Yes", 2000, 0.90, 1),
	)
	b, err := s.Score(c, anchor, DirectionNeutral)
	require.NoError(t, err)
	assert.Greater(t, b.Total, 0.0)
}

func TestNewConvictionScorer_RejectsBadConfig(t *testing.T) {
	mutations := map[string]func(*ConvictionConfig){
		"zero size scale":          func(c *ConvictionConfig) { c.SizeScale = 0 },
		"extremity floor at one":   func(c *ConvictionConfig) { c.ExtremityFloor = 1.0 },
		"zero half-life":           func(c *ConvictionConfig) { c.HalfLifeHours = 0 },
		"damping above one":        func(c *ConvictionConfig) { c.VolatilityDampingMax = 1.5 },
		"exponential base too low": func(c *ConvictionConfig) { c.ConsensusBase = 1.0 },
		"unknown consensus mode":   func(c *ConvictionConfig) { c.ConsensusMode = "quadratic" },
		"clustering bonus below 1": func(c *ConvictionConfig) { c.ClusteringBonus = 0.9 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConvictionConfig()
			mutate(&cfg)
			_, err := NewConvictionScorer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestTradeRecord_Direction(t *testing.T) {
	cases := []struct {
		side, outcome string
		want          Direction
	}{
		{"BUY", "Yes", DirectionBullish},
		{"buy", "YES", DirectionBullish},
		{"SELL", "No", DirectionBullish},
		{"BUY", "No", DirectionBearish},
		{"SELL", "Yes", DirectionBearish},
		{" sell ", "no", DirectionBullish},
	}
	for _, tc := range cases {
		tr := TradeRecord{Side: tc.side, Outcome: tc.outcome}
		dir, err := tr.Direction()
		require.NoError(t, err, "%s/%s", tc.side, tc.outcome)
		assert.Equal(t, tc.want, dir, "%s/%s", tc.side, tc.outcome)
	}

	_, err := TradeRecord{Side: "STAKE", Outcome: "Yes"}.Direction()
	assert.ErrorIs(t, err, ErrUnknownSide)
}
