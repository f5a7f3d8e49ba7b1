package model

import (
	"fmt"
	"strings"
)

// Check names reported by Validate. They mirror the store's constraint
// names so a failure reads the same whether it is caught in-process or
// rejected by the database.
const (
	CheckSymbolNonEmpty = "symbol_non_empty"
	CheckIntervalKnown  = "interval_known"
	CheckOpenPositive   = "open_positive"
	CheckHighPositive   = "high_positive"
	CheckLowPositive    = "low_positive"
	CheckClosePositive  = "close_positive"
	CheckVolumeNonNeg   = "volume_non_negative"
	CheckHighGteLow     = "high_gte_low"
	CheckHighGteOpen    = "high_gte_open"
	CheckHighGteClose   = "high_gte_close"
	CheckLowLteOpen     = "low_lte_open"
	CheckLowLteClose    = "low_lte_close"
	CheckCloseAfterOpen = "close_time_after_open_time"
)

// ValidationError reports every candle invariant that failed, not just the
// first. Callers loading history from multiple upstream formats get the
// full picture in one pass.
type ValidationError struct {
	Symbol   string
	Interval Interval
	Checks   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid candle %s:%s: failed checks [%s]",
		e.Symbol, e.Interval, strings.Join(e.Checks, ", "))
}

// Validate checks a single candle against the data-model invariants.
// It is pure and side-effect-free; a violation is a data-integrity error,
// not a computation error. Returns nil or a *ValidationError listing all
// failed checks.
func Validate(c Candle) error {
	var failed []string

	if c.Symbol == "" {
		failed = append(failed, CheckSymbolNonEmpty)
	}
	if !c.Interval.Valid() {
		failed = append(failed, CheckIntervalKnown)
	}
	if !(c.Open > 0) {
		failed = append(failed, CheckOpenPositive)
	}
	if !(c.High > 0) {
		failed = append(failed, CheckHighPositive)
	}
	if !(c.Low > 0) {
		failed = append(failed, CheckLowPositive)
	}
	if !(c.Close > 0) {
		failed = append(failed, CheckClosePositive)
	}
	if c.Volume < 0 {
		failed = append(failed, CheckVolumeNonNeg)
	}
	if c.High < c.Low {
		failed = append(failed, CheckHighGteLow)
	}
	if c.High < c.Open {
		failed = append(failed, CheckHighGteOpen)
	}
	if c.High < c.Close {
		failed = append(failed, CheckHighGteClose)
	}
	if c.Low > c.Open {
		failed = append(failed, CheckLowLteOpen)
	}
	if c.Low > c.Close {
		failed = append(failed, CheckLowLteClose)
	}
	if !c.CloseTime.After(c.OpenTime) {
		failed = append(failed, CheckCloseAfterOpen)
	}

	if len(failed) > 0 {
		return &ValidationError{Symbol: c.Symbol, Interval: c.Interval, Checks: failed}
	}
	return nil
}
