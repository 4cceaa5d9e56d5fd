// Package scheduler fires a daily callback at a fixed Asia/Ho_Chi_Minh
// wall-clock time, used to clear the day's in-memory state before the next
// trading session opens.
package scheduler

import (
	"fmt"
	"log"
	"time"
)

var hoChiMinh = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		log.Printf("scheduler: could not load Asia/Ho_Chi_Minh, falling back to fixed +07:00: %v", err)
		return time.FixedZone("ICT", 7*3600)
	}
	return loc
}

// DailyReset calls fn once at every occurrence of hhmm (format "HH:MM") in
// Asia/Ho_Chi_Minh time, until stop is closed. The next occurrence is
// recomputed from scratch after each firing so a missed tick or clock skew
// never accumulates drift.
func DailyReset(hhmm string, fn func(), stop <-chan struct{}) {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		log.Printf("scheduler: invalid reset time %q, defaulting to 15:05: %v", hhmm, err)
		hour, minute = 15, 5
	}

	for {
		next := nextOccurrence(hour, minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			fn()
		case <-stop:
			timer.Stop()
			return
		}
	}
}

func nextOccurrence(hour, minute int) time.Time {
	now := time.Now().In(hoChiMinh)
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, hoChiMinh)
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}
