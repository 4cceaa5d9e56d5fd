// Package futures resolves which VN30 index-futures contract symbols are
// live right now, and which of those is the "primary" (most liquid) one.
package futures

import (
	"fmt"
	"time"
)

// Symbols returns the contract symbols that should be subscribed to: either
// the single override symbol if one is configured, or the current and next
// calendar month's VN30F contracts.
func Symbols(override string, now time.Time) []string {
	if override != "" {
		return []string{override}
	}
	current := contractSymbol(now)
	next := contractSymbol(firstOfNextMonth(now))
	return []string{current, next}
}

// Primary returns whichever of Symbols(...) is the active front-month
// contract: the current month's contract until the day before its last
// Thursday; from the last Thursday on, the next month's contract.
func Primary(override string, now time.Time) string {
	symbols := Symbols(override, now)
	if override != "" {
		return symbols[0]
	}
	lastThu := lastThursday(now.Year(), now.Month())
	if !now.Before(lastThu) {
		return symbols[1]
	}
	return symbols[0]
}

func contractSymbol(t time.Time) string {
	return fmt.Sprintf("VN30F%02d%02d", t.Year()%100, int(t.Month()))
}

func firstOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, t.Location())
}

// lastThursday returns midnight on the last Thursday of the given month.
func lastThursday(year int, month time.Month) time.Time {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfNext.AddDate(0, 0, -1)
	for lastDay.Weekday() != time.Thursday {
		lastDay = lastDay.AddDate(0, 0, -1)
	}
	return time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 0, 0, 0, 0, time.UTC)
}
