// Package series provides ordered iteration over candle series. Every
// indicator algorithm consumes candles through a Cursor, which enforces the
// strict open_time ordering the rest of the engine assumes. An ordering
// break is fatal for the whole computation; the cursor never reorders.
package series

import (
	"fmt"
	"time"

	"candlecore/internal/model"
)

// UnorderedSeriesError reports a break in the strict ascending open_time
// ordering of a candle series. It aborts the computation that hit it:
// partial results over a misordered series would mislead.
type UnorderedSeriesError struct {
	Symbol   string
	Interval model.Interval
	Index    int // index of the offending candle
	Prev     time.Time
	Next     time.Time
}

func (e *UnorderedSeriesError) Error() string {
	return fmt.Sprintf("series %s:%s not strictly ascending at index %d: %s followed by %s",
		e.Symbol, e.Interval, e.Index,
		e.Prev.UTC().Format(time.RFC3339), e.Next.UTC().Format(time.RFC3339))
}

// Cursor is a lazy, forward-only, restartable iterator over one candle
// series. Next fails fast with *UnorderedSeriesError when consecutive
// open_time values are not strictly increasing. Gaps are permitted and
// never filled; the cursor yields whatever points exist.
type Cursor struct {
	candles  []model.Candle
	pos      int
	validate bool
}

// New creates a cursor over candles that checks ordering only. The input
// slice is never mutated.
func New(candles []model.Candle) *Cursor {
	return &Cursor{candles: candles}
}

// NewValidated creates a cursor that additionally validates every candle
// against the model invariants before yielding it. Use it for non-trusted
// inputs; data fetched from the store is constraint-checked at write time.
func NewValidated(candles []model.Candle) *Cursor {
	return &Cursor{candles: candles, validate: true}
}

// Next returns the next candle. ok is false once the series is exhausted.
// A non-nil error (*UnorderedSeriesError or *model.ValidationError) means
// the input contract is broken; the cursor yields nothing further.
func (c *Cursor) Next() (model.Candle, bool, error) {
	if c.pos >= len(c.candles) {
		return model.Candle{}, false, nil
	}

	cur := c.candles[c.pos]
	if c.pos > 0 {
		prev := c.candles[c.pos-1]
		if !cur.OpenTime.After(prev.OpenTime) {
			return model.Candle{}, false, &UnorderedSeriesError{
				Symbol:   cur.Symbol,
				Interval: cur.Interval,
				Index:    c.pos,
				Prev:     prev.OpenTime,
				Next:     cur.OpenTime,
			}
		}
	}

	if c.validate {
		if err := model.Validate(cur); err != nil {
			return model.Candle{}, false, err
		}
	}

	c.pos++
	return cur, true, nil
}

// Reset rewinds the cursor to the start of the series.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Len returns the total number of candles in the underlying series.
func (c *Cursor) Len() int {
	return len(c.candles)
}

// Source maps (symbol, interval) keys to already-ascending candle slices.
// It is the in-memory form of the storage collaborator's fetch contract.
type Source map[model.SeriesKey][]model.Candle

// Cursor returns an ordering-checked cursor over the series stored under
// (symbol, interval). A missing key yields an empty cursor.
func (s Source) Cursor(symbol string, interval model.Interval) *Cursor {
	return New(s[model.SeriesKey{Symbol: symbol, Interval: interval}])
}
