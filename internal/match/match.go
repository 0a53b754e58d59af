// Package match decides whether an event is active on a given civil date.
// The same predicate drives per-talent calendar checks and the daily digest.
package match

import (
	"time"

	"github.com/magicien/Nij.iCal/internal/model"
)

// OnDate reports whether ev is active on the calendar date of date,
// evaluated in the fixed JST civil zone.
//
// Month/day comparisons intentionally read ev.Begin in the zone it was
// constructed in; every producer anchors all-day begins at a civil
// midnight, so converting would only shift dates.
func OnDate(ev model.Event, date time.Time) bool {
	date = date.In(model.JST)
	dayBegin := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, model.JST)
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, model.JST)

	// Loose fast reject: anything starting more than a day out cannot be
	// active. The slack tolerates timed events spanning midnight.
	if ev.Begin.After(dayBegin.AddDate(0, 0, 1)) {
		return false
	}

	switch ev.Type {
	case model.TypeTicketBegin, model.TypeTicketEnd:
		// Sale-window announcements are points, not durations: they
		// match only their own calendar date regardless of the
		// nominal 30-minute span.
		return sameDate(ev.Begin, date)
	case model.TypeEvent, model.TypeBirthday, model.TypeAnniversary,
		model.TypeDebut, model.TypeGraduation, model.TypeUnknown:
		// Flag-driven rules below.
	}

	if !ev.AllDay {
		// Strict intersection: a zero-length overlap does not count.
		begin := laterOf(ev.Begin, dayBegin)
		end := earlierOf(ev.End, dayEnd)
		return begin.Before(end)
	}

	if !ev.Yearly && ev.Begin.Year() != date.Year() {
		return false
	}

	// No current producer bounds an all-day event, but honor the bound if
	// one ever does.
	if ev.RepeatUntil != nil && ev.RepeatUntil.Before(date) {
		return false
	}

	return ev.Begin.Month() == date.Month() && ev.Begin.Day() == date.Day()
}

// Filter returns the events active on date, preserving input order.
func Filter(events []model.Event, date time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if OnDate(ev, date) {
			out = append(out, ev)
		}
	}
	return out
}

func sameDate(t, date time.Time) bool {
	return t.Year() == date.Year() && t.Month() == date.Month() && t.Day() == date.Day()
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
