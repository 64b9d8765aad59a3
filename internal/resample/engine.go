// Package resample derives 5m/15m/30m/60m/daily bars from stored 1-minute
// bars, windowed by TAIFEX trading session. The transformation is pure and
// stateless: it never mutates its input and is safe for concurrent use.
package resample

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stockcity/txf-bar-service/internal/market"
	"github.com/stockcity/txf-bar-service/internal/models"
)

// ErrOutOfOrder reports a caller contract violation: raw bars must arrive
// ordered by timestamp ascending. The engine rejects rather than sorts.
var ErrOutOfOrder = errors.New("raw bars out of order")

// BarSource supplies raw 1-minute bars for a timestamp range, ordered
// ascending and deduplicated. The persistent store implements this; tests
// inject synthetic fixtures.
type BarSource interface {
	GetBarsRange(ctx context.Context, code string, start, end time.Time) ([]models.Bar, error)
}

// SettlementCalendar is the slice of the market calendar the engine needs:
// the effective day-session close for a calendar date.
type SettlementCalendar interface {
	DaySessionClose(date time.Time) (time.Time, error)
}

// Anomalies reports malformed raw bars found during a resample call. The
// offending buckets are dropped from the output, never silently repaired.
type Anomalies struct {
	MalformedBars  int       `json:"malformed_bars"`
	DroppedBuckets int       `json:"dropped_buckets"`
	FirstTS        time.Time `json:"first_ts,omitempty"`
	LastTS         time.Time `json:"last_ts,omitempty"`
}

// Result is the output of one resample call.
type Result struct {
	Bars      []models.Bar `json:"bars"`
	Anomalies Anomalies    `json:"anomalies"`
}

// Engine produces derived bars from a raw-bar source and a settlement
// calendar. Both collaborators are injected; the engine holds no other state.
type Engine struct {
	source BarSource
	cal    SettlementCalendar
}

// New creates an Engine.
func New(source BarSource, cal SettlementCalendar) *Engine {
	return &Engine{source: source, cal: cal}
}

// Query fetches raw 1-minute bars for code and resamples them. The result
// covers the trading days from the date of `from` through the date of `to`
// inclusive, so the raw fetch always extends past `to` to the end of its
// trading day: midnight after `to`'s date for day-only sessions, and 05:00
// the next morning when the session includes the night window, so the last
// night session's post-midnight tail is aggregated into its own trading day
// rather than cut at midnight. The trading-day filter below trims anything
// the wider fetch picks up.
func (e *Engine) Query(ctx context.Context, code string, period models.Period, session models.Session, from, to time.Time) (*Result, error) {
	fetchEnd := market.DateOf(to).AddDate(0, 0, 1)
	if session.IncludesNight() {
		fetchEnd = fetchEnd.Add(time.Duration(market.NightCloseHour) * time.Hour)
	}
	bars, err := e.source.GetBarsRange(ctx, code, from, fetchEnd)
	if err != nil {
		return nil, fmt.Errorf("fetching raw bars for %s: %w", code, err)
	}
	dayMin := market.DateOf(from)
	dayMax := market.DateOf(to)
	return e.resample(bars, period, session, &dayMin, &dayMax)
}

// ResampleBars resamples an already-fetched sequence of raw 1-minute bars.
// The input must be ordered by timestamp ascending; out-of-order input is
// rejected with ErrOutOfOrder.
func (e *Engine) ResampleBars(bars []models.Bar, period models.Period, session models.Session) (*Result, error) {
	return e.resample(bars, period, session, nil, nil)
}

// taggedBar is a raw bar annotated with its trading day and session half,
// computed once so bucketing stays a pure grouping step.
type taggedBar struct {
	bar        models.Bar
	tradingDay time.Time
	night      bool
	malformed  bool
}

func (e *Engine) resample(bars []models.Bar, period models.Period, session models.Session, dayMin, dayMax *time.Time) (*Result, error) {
	tagged, anomalies, err := e.filterAndTag(bars, session, dayMin, dayMax)
	if err != nil {
		return nil, err
	}

	var out []models.Bar
	if period.IsIntraday() && period.Minutes() == 1 {
		out = passthrough(tagged, anomalies)
	} else {
		out = aggregate(tagged, period, anomalies)
	}
	return &Result{Bars: out, Anomalies: *anomalies}, nil
}

// filterAndTag applies the session predicate, assigns each retained bar its
// trading day, and flags malformed bars. Day-session close times are looked
// up once per calendar date per call, never cached across calls.
func (e *Engine) filterAndTag(bars []models.Bar, session models.Session, dayMin, dayMax *time.Time) ([]taggedBar, *Anomalies, error) {
	anomalies := &Anomalies{}
	closes := make(map[time.Time]time.Time)

	closeFor := func(date time.Time) (time.Time, error) {
		if c, ok := closes[date]; ok {
			return c, nil
		}
		c, err := e.cal.DaySessionClose(date)
		if err != nil {
			return time.Time{}, err
		}
		closes[date] = c
		return c, nil
	}

	var tagged []taggedBar
	var prev time.Time
	for i := range bars {
		b := bars[i]
		if !prev.IsZero() && b.TS.Before(prev) {
			return nil, nil, fmt.Errorf("%w: bar %s after bar %s",
				ErrOutOfOrder, b.TS.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		prev = b.TS

		date := market.DateOf(b.TS)
		var tb taggedBar

		switch {
		case session.IncludesNight() && market.InNightWindow(b.TS):
			day := date
			if market.AfterMidnight(b.TS) {
				day = date.AddDate(0, 0, -1)
			}
			tb = taggedBar{bar: b, tradingDay: day, night: true}
		case session.IncludesDay() && !b.TS.Before(market.DayOpen(date)):
			closeTS, err := closeFor(date)
			if err != nil {
				return nil, nil, err
			}
			if !b.TS.Before(closeTS) {
				continue
			}
			tb = taggedBar{bar: b, tradingDay: date}
		default:
			continue
		}

		if dayMin != nil && tb.tradingDay.Before(*dayMin) {
			continue
		}
		if dayMax != nil && tb.tradingDay.After(*dayMax) {
			continue
		}

		if err := b.Validate(); err != nil {
			tb.malformed = true
			anomalies.MalformedBars++
			if anomalies.FirstTS.IsZero() || b.TS.Before(anomalies.FirstTS) {
				anomalies.FirstTS = b.TS
			}
			if b.TS.After(anomalies.LastTS) {
				anomalies.LastTS = b.TS
			}
		}
		tagged = append(tagged, tb)
	}
	return tagged, anomalies, nil
}

// passthrough returns validated 1m bars verbatim; malformed bars are dropped
// and counted, each one being its own bucket.
func passthrough(tagged []taggedBar, anomalies *Anomalies) []models.Bar {
	out := make([]models.Bar, 0, len(tagged))
	for _, tb := range tagged {
		if tb.malformed {
			anomalies.DroppedBuckets++
			continue
		}
		out = append(out, tb.bar)
	}
	return out
}

// bucketStart computes the bucket a tagged bar falls into. Daily buckets are
// one per trading day. Sub-daily buckets are fixed-size windows aligned to
// the start of the bar's session segment (08:45 for the day session, 15:00
// for the night session), so a night bucket may begin after midnight on the
// calendar date following its trading day.
func bucketStart(tb taggedBar, period models.Period) time.Time {
	if !period.IsIntraday() {
		return tb.tradingDay
	}
	segStart := market.DayOpen(tb.tradingDay)
	if tb.night {
		segStart = market.NightOpen(tb.tradingDay)
	}
	idx := int(tb.bar.TS.Sub(segStart).Minutes()) / period.Minutes()
	return segStart.Add(time.Duration(idx*period.Minutes()) * time.Minute)
}

type bucket struct {
	start    time.Time
	bars     []models.Bar
	poisoned bool
}

// aggregate groups tagged bars into buckets and folds each bucket into one
// derived bar: open of the first, max high, min low, close of the last, sum
// of volumes, timestamped at the bucket start. Buckets containing a
// malformed bar are dropped whole. Empty buckets are never emitted.
func aggregate(tagged []taggedBar, period models.Period, anomalies *Anomalies) []models.Bar {
	buckets := make(map[int64]*bucket)
	for _, tb := range tagged {
		start := bucketStart(tb, period)
		key := start.Unix()
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{start: start}
			buckets[key] = bk
		}
		if tb.malformed {
			bk.poisoned = true
			continue
		}
		bk.bars = append(bk.bars, tb.bar)
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]models.Bar, 0, len(keys))
	for _, k := range keys {
		bk := buckets[k]
		if bk.poisoned {
			anomalies.DroppedBuckets++
			continue
		}
		if len(bk.bars) == 0 {
			continue
		}
		agg := models.Bar{
			Code:   bk.bars[0].Code,
			TS:     bk.start,
			Open:   bk.bars[0].Open,
			High:   bk.bars[0].High,
			Low:    bk.bars[0].Low,
			Close:  bk.bars[len(bk.bars)-1].Close,
			Volume: 0,
		}
		for _, b := range bk.bars {
			if b.High.GreaterThan(agg.High) {
				agg.High = b.High
			}
			if b.Low.LessThan(agg.Low) {
				agg.Low = b.Low
			}
			agg.Volume += b.Volume
		}
		out = append(out, agg)
	}
	return out
}
