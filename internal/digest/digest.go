// Package digest produces the plain-text "what's happening" blocks posted
// alongside the calendars, one per locale.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/magicien/Nij.iCal/internal/derive"
	"github.com/magicien/Nij.iCal/internal/match"
	"github.com/magicien/Nij.iCal/internal/model"
)

const longEventThreshold = 48 * time.Hour

// Texts is a bilingual digest pair.
type Texts struct {
	Ja string
	En string
}

// ForDate builds the digest body for one civil date: active live events
// ordered by start time, then active talent events ordered by start time.
// Each entry is the title line (time-prefixed for short timed events
// starting that day) plus the URL when present, separated by blank lines.
//
// Timed events running longer than 48 hours only appear on their first day
// (with a "starts" suffix) and their last day (with an "ends" suffix);
// intermediate days stay quiet.
func ForDate(liveEvents, talentEvents []model.Event, date time.Time) Texts {
	date = date.In(model.JST)

	live := sortedByBegin(match.Filter(liveEvents, date))
	talent := sortedByBegin(match.Filter(talentEvents, date))

	var ja, en strings.Builder

	for _, ev := range live {
		duration := ev.End.Sub(ev.Begin)

		switch {
		case !ev.AllDay && duration >= longEventThreshold:
			begin := ev.Begin.In(model.JST)
			end := ev.End.In(model.JST)
			switch {
			case sameDate(begin, date):
				writeEntry(&ja, ev.Summary.Native+" 開始", ev.URL)
				writeEntry(&en, ev.Summary.English+" starts", ev.URL)
			case sameDate(end, date):
				writeEntry(&ja, ev.Summary.Native+" 終了", ev.URL)
				writeEntry(&en, ev.Summary.English+" ends", ev.URL)
			}
			// Intermediate days: suppressed.

		case !ev.AllDay && duration < 24*time.Hour && sameDate(ev.Begin.In(model.JST), date):
			clock := ev.Begin.In(model.JST).Format("15:04")
			writeEntry(&ja, clock+" "+ev.Summary.Native, ev.URL)
			writeEntry(&en, clock+" JST "+ev.Summary.English, ev.URL)

		default:
			writeEntry(&ja, ev.Summary.Native, ev.URL)
			writeEntry(&en, ev.Summary.English, ev.URL)
		}
	}

	for _, ev := range talent {
		writeEntry(&ja, ev.Summary.Native, ev.URL)
		writeEntry(&en, ev.Summary.English, ev.URL)
	}

	return Texts{Ja: ja.String(), En: en.String()}
}

// DailyPost composes the full two-day post: today's block and tomorrow's,
// each with its date header and a "none" fallback when a day is empty.
func DailyPost(liveEvents, talentEvents []model.Event, today time.Time) Texts {
	today = today.In(model.JST)
	tomorrow := today.AddDate(0, 0, 1)

	td := ForDate(liveEvents, talentEvents, today)
	tm := ForDate(liveEvents, talentEvents, tomorrow)

	return Texts{
		Ja: headerJa("今日", today) + orNone(td.Ja, "なし") +
			headerJa("明日", tomorrow) + orNone(tm.Ja, "なし"),
		En: headerEn("Today", today) + orNone(td.En, "None") +
			headerEn("Tomorrow", tomorrow) + orNone(tm.En, "None"),
	}
}

func headerJa(label string, date time.Time) string {
	return fmt.Sprintf("📅 %s（%d/%d）\n", label, int(date.Month()), date.Day())
}

func headerEn(label string, date time.Time) string {
	return fmt.Sprintf("📅 %s (%s %s JST)\n", label, date.Format("Jan"), derive.Ordinal(date.Day()))
}

func orNone(body, fallback string) string {
	if body == "" {
		return fallback + "\n\n"
	}
	return body
}

func writeEntry(b *strings.Builder, line string, url *string) {
	b.WriteString(line + "\n")
	if url != nil {
		b.WriteString(*url + "\n")
	}
	b.WriteString("\n")
}

func sortedByBegin(events []model.Event) []model.Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Begin.Before(events[j].Begin)
	})
	return events
}

func sameDate(t, date time.Time) bool {
	return t.Year() == date.Year() && t.Month() == date.Month() && t.Day() == date.Day()
}
