package outcome

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickcap/internal/exchange"
	"quickcap/internal/model"
	"quickcap/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "outcomes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// trendBars builds n 1m bars with deterministic prices: open 100+i,
// close 100.5+i, high 101+i, low 100+i.
func trendBars(n int) []model.Bar {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		f := float64(i)
		bars[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   100 + f,
			High:   101 + f,
			Low:    100 + f,
			Close:  100.5 + f,
			Volume: 1,
		}
	}
	return bars
}

func insertSignal(t *testing.T, st store.Store, at time.Time, side model.Side) int64 {
	t.Helper()
	id, err := st.InsertSignal(&model.Signal{
		Time:     at,
		Type:     model.SignalSpot,
		Venue:    "kucoin",
		Symbol:   "BTCUSDT",
		Interval: "1m",
		Side:     side,
		Price:    100,
		Score:    5,
		Triggers: []string{"Momentum Pop"},
		Category: model.CategoryMomentum,
	})
	require.NoError(t, err)
	return id
}

func TestNewEvaluatorRejectsBadHorizon(t *testing.T) {
	_, err := NewEvaluator([]int{15, 0}, 500, store.NewNoopStore())
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestNewEvaluatorDefaults(t *testing.T) {
	ev, err := NewEvaluator(nil, 0, store.NewNoopStore())
	require.NoError(t, err)
	assert.Equal(t, DefaultHorizons, ev.horizons)
	assert.Equal(t, 500, ev.lookback)
}

func TestEvaluateGroupBadInterval(t *testing.T) {
	ev, err := NewEvaluator(DefaultHorizons, 500, store.NewNoopStore())
	require.NoError(t, err)

	_, err = ev.EvaluateGroup(context.Background(), &exchange.MockClient{}, Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "2h"})
	assert.ErrorIs(t, err, ErrBadInterval)
}

func TestEvaluateGroupNextBarOpenEntry(t *testing.T) {
	st := newTestStore(t)
	bars := trendBars(100)
	id := insertSignal(t, st, bars[10].Time, model.SideLong)

	ev, err := NewEvaluator([]int{15}, 500, st)
	require.NoError(t, err)

	n, err := ev.EvaluateGroup(context.Background(), &exchange.MockClient{Bars: bars}, Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Entry is the open of bar 11, exit the close of bar 26.
	entry := bars[11].Open
	exit := bars[26].Close
	rows := queryOutcomes(t, st)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, id, r.SignalID)
	assert.Equal(t, 15, r.HorizonMin)
	assert.InDelta(t, entry, r.EntryPrice, 1e-9)
	assert.InDelta(t, exit, r.ExitPrice, 1e-9)
	assert.InDelta(t, exit/entry-1, r.Ret, 1e-9)
	assert.InDelta(t, bars[26].High/entry-1, r.MaxFav, 1e-9)
	assert.InDelta(t, 0, r.MaxAdv, 1e-9, "uptrend long has no adverse excursion, floored at zero")
}

func TestEvaluateGroupShortSideFlipsSign(t *testing.T) {
	st := newTestStore(t)
	bars := trendBars(100)
	insertSignal(t, st, bars[10].Time, model.SideShort)

	ev, err := NewEvaluator([]int{15}, 500, st)
	require.NoError(t, err)
	_, err = ev.EvaluateGroup(context.Background(), &exchange.MockClient{Bars: bars}, Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)

	rows := queryOutcomes(t, st)
	require.Len(t, rows, 1)
	assert.Negative(t, rows[0].Ret, "short into an uptrend loses")
	assert.InDelta(t, 0, rows[0].MaxFav, 1e-9)
	assert.Positive(t, rows[0].MaxAdv)
}

func TestEvaluateGroupClampsHorizonAtSeriesEnd(t *testing.T) {
	st := newTestStore(t)
	bars := trendBars(100)
	insertSignal(t, st, bars[97].Time, model.SideLong)

	ev, err := NewEvaluator([]int{60}, 500, st)
	require.NoError(t, err)
	_, err = ev.EvaluateGroup(context.Background(), &exchange.MockClient{Bars: bars}, Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)

	rows := queryOutcomes(t, st)
	require.Len(t, rows, 1)
	assert.InDelta(t, bars[98].Open, rows[0].EntryPrice, 1e-9)
	assert.InDelta(t, bars[99].Close, rows[0].ExitPrice, 1e-9, "window truncates at the last bar")
}

func TestEvaluateGroupSkipsSignalAfterLastBar(t *testing.T) {
	st := newTestStore(t)
	bars := trendBars(100)
	insertSignal(t, st, bars[99].Time.Add(time.Hour), model.SideLong)

	ev, err := NewEvaluator([]int{15}, 500, st)
	require.NoError(t, err)
	n, err := ev.EvaluateGroup(context.Background(), &exchange.MockClient{Bars: bars}, Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEvaluateGroupIdempotent(t *testing.T) {
	st := newTestStore(t)
	bars := trendBars(100)
	insertSignal(t, st, bars[10].Time, model.SideLong)

	ev, err := NewEvaluator([]int{15, 30, 60}, 500, st)
	require.NoError(t, err)
	g := Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"}
	client := &exchange.MockClient{Bars: bars}

	first, err := ev.EvaluateGroup(context.Background(), client, g)
	require.NoError(t, err)
	assert.Equal(t, 3, first)

	again, err := ev.EvaluateGroup(context.Background(), client, g)
	require.NoError(t, err)
	assert.Equal(t, 3, again)

	count, err := st.OutcomeCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count, "re-runs upsert, never duplicate")
}

func TestEvaluateGroupFetchErrorDegrades(t *testing.T) {
	st := newTestStore(t)
	insertSignal(t, st, time.Now().UTC(), model.SideLong)

	ev, err := NewEvaluator([]int{15}, 500, st)
	require.NoError(t, err)
	n, err := ev.EvaluateGroup(context.Background(), &exchange.MockClient{Err: assert.AnError}, Group{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err, "fetch failures skip the group")
	assert.Zero(t, n)
}

func TestRunAggregates(t *testing.T) {
	st := newTestStore(t)
	bars := trendBars(100)
	insertSignal(t, st, bars[10].Time, model.SideLong)

	ev, err := NewEvaluator([]int{15, 30}, 500, st)
	require.NoError(t, err)

	total := ev.Run(context.Background(),
		map[string]exchange.Client{"kucoin": &exchange.MockClient{Bars: bars}},
		[]Group{
			{Venue: "kucoin", Symbol: "BTCUSDT", Interval: "1m"},
			{Venue: "unknown", Symbol: "BTCUSDT", Interval: "1m"},
		}, 2)
	assert.Equal(t, 2, total, "groups without a client are skipped")
}

// queryOutcomes reads back stored rows via a second evaluation-free path.
func queryOutcomes(t *testing.T, st *store.SQLiteStore) []model.Outcome {
	t.Helper()
	rows, err := st.Outcomes()
	require.NoError(t, err)
	return rows
}
