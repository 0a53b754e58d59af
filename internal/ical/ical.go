// Package ical renders events and calendars into the published text format.
// The byte layout (field order, formats, escaping, no folding) is a
// consumer contract; see the format notes on Renderer.Event.
package ical

import (
	"strings"

	"github.com/magicien/Nij.iCal/internal/model"
)

const (
	datetimeFormat = "20060102T150405Z"
	dateFormat     = "20060102"
)

// Renderer serializes events and calendar documents. Configuration is
// threaded in here explicitly; nothing in this package reads ambient state.
type Renderer struct {
	// ProdID identifies the generator in the document header.
	ProdID string
	// TimezoneName is the display timezone advertised to consumers.
	TimezoneName string
	// HashtagURLBase prefixes the hashtag search link in descriptions.
	HashtagURLBase string
}

// NewRenderer returns a Renderer with the published defaults.
func NewRenderer() Renderer {
	return Renderer{
		ProdID:         "-//magicien//NONSGML Nij.iCal//JA",
		TimezoneName:   "Asia/Tokyo",
		HashtagURLBase: "https://x.com/hashtag/",
	}
}

// Document renders a whole calendar for one locale. When talent is non-nil
// the event list is restricted to that talent's view: events naming the
// talent directly, plus organization-wide events beginning on/after the
// talent's debut and not after their graduation date.
func (r Renderer) Document(cal model.Calendar, loc model.Locale, talent *model.Talent) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("PRODID:" + r.ProdID + "\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("X-WR-CALNAME:" + cal.Name.In(loc) + "\r\n")
	b.WriteString("X-WR-TIMEZONE:" + r.TimezoneName + "\r\n")

	for _, ev := range cal.Events {
		if talent != nil && !visibleTo(ev, *talent) {
			continue
		}
		b.WriteString(r.Event(ev, loc))
	}

	b.WriteString("END:VCALENDAR\r\n")

	return b.String()
}

// visibleTo implements the per-talent subscription rule. Direct membership
// always wins; sentinel membership is date-gated on both ends so
// organization events neither predate the association nor outlive it.
func visibleTo(ev model.Event, t model.Talent) bool {
	direct := false
	sentinel := false
	for _, et := range ev.Talents {
		switch et.Name {
		case t.Name:
			direct = true
		case model.OrganizationName:
			sentinel = true
		}
	}
	if direct {
		return true
	}
	if !sentinel {
		return false
	}

	if ev.Begin.Before(t.FirstTweet) {
		return false
	}
	if t.Graduation != nil && !ev.Begin.Before(t.Graduation.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Event renders one VEVENT block. Field order is fixed: UID, DTSTAMP,
// DTSTART/DTEND, RRULE, TRANSP, SUMMARY, LOCATION, GEO, DESCRIPTION, URL.
// An all-day event whose end equals its begin omits DTEND.
func (r Renderer) Event(ev model.Event, loc model.Locale) string {
	var b strings.Builder

	b.WriteString(prop("BEGIN", "VEVENT"))
	b.WriteString(prop("UID", ev.UID))
	b.WriteString(prop("DTSTAMP", ev.Timestamp.UTC().Format(datetimeFormat)))

	if ev.AllDay {
		b.WriteString(prop("DTSTART", ev.Begin.Format(dateFormat)))
		if !ev.End.Equal(ev.Begin) {
			b.WriteString(prop("DTEND", ev.End.Format(dateFormat)))
		}
	} else {
		b.WriteString(prop("DTSTART", ev.Begin.UTC().Format(datetimeFormat)))
		b.WriteString(prop("DTEND", ev.End.UTC().Format(datetimeFormat)))
	}

	if ev.Yearly {
		rule := "FREQ=YEARLY"
		if ev.RepeatUntil != nil {
			rule += ";UNTIL=" + ev.RepeatUntil.UTC().Format(datetimeFormat)
		}
		b.WriteString(prop("RRULE", rule))
	}

	b.WriteString(prop("TRANSP", "TRANSPARENT"))
	b.WriteString(prop("SUMMARY", ev.Summary.In(loc)))

	if ev.Location != nil {
		b.WriteString(prop("LOCATION", ev.Location.In(loc)))
	}
	if ev.Geo != nil {
		b.WriteString(prop("GEO", *ev.Geo))
	}

	b.WriteString(prop("DESCRIPTION", r.description(ev, loc)))

	if ev.URL != nil {
		b.WriteString(prop("URL", *ev.URL))
	}

	b.WriteString(prop("END", "VEVENT"))

	return b.String()
}

// prop emits one NAME:value line. Embedded line breaks become the literal
// two-character sequence `\n`. No folding: Google Calendar mis-renders
// folded lines, so long lines are left as-is.
func prop(name, value string) string {
	return name + ":" + strings.ReplaceAll(value, "\n", "\\n") + "\r\n"
}

// description assembles the base text plus the optional hashtag, ticket and
// talent-credit blocks, in that fixed order.
func (r Renderer) description(ev model.Event, loc model.Locale) string {
	text := ev.Description.In(loc)
	text += r.hashtagBlock(ev, loc)
	text += ticketBlock(ev, loc)
	text += talentBlock(ev, loc)
	return text
}

func (r Renderer) hashtagBlock(ev model.Event, loc model.Locale) string {
	if ev.Hashtag == nil {
		return ""
	}
	tag := *ev.Hashtag
	label := "ハッシュタグ："
	if loc == model.LocaleEn {
		label = "Hashtag: "
	}
	return "\n\n" + label + "#" + tag + "\n" + r.HashtagURLBase + tag
}

func ticketBlock(ev model.Event, loc model.Locale) string {
	if len(ev.Tickets) == 0 {
		return ""
	}

	var b strings.Builder
	for _, tk := range ev.Tickets {
		b.WriteString("\n\n" + tk.Summary.In(loc) + "\n" + ticketRange(tk, loc))
		if tk.URL != nil {
			b.WriteString("\n" + *tk.URL)
		}
	}
	return b.String()
}

// ticketRange formats the sale window, leaving the missing side open.
// Native: 2024/1/5 10:00〜2024/2/1 23:59. English: from Jan 5, 2024, 10:00
// until Feb 1, 2024, 23:59.
func ticketRange(tk model.Ticket, loc model.Locale) string {
	if loc == model.LocaleEn {
		const layout = "Jan 2, 2006, 15:04"
		switch {
		case tk.Begin != nil && tk.End != nil:
			return "from " + tk.Begin.Format(layout) + " until " + tk.End.Format(layout)
		case tk.Begin != nil:
			return "from " + tk.Begin.Format(layout)
		default:
			return "until " + tk.End.Format(layout)
		}
	}

	const layout = "2006/1/2 15:04"
	out := ""
	if tk.Begin != nil {
		out += tk.Begin.Format(layout)
	}
	out += "〜"
	if tk.End != nil {
		out += tk.End.Format(layout)
	}
	return out
}

// talentBlock appends the credits paragraph per associated talent.
func talentBlock(ev model.Event, loc model.Locale) string {
	if len(ev.Talents) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n==========\n")
	for _, t := range ev.Talents {
		name := t.Name
		if loc == model.LocaleEn {
			name = t.EngName
		}
		b.WriteString("【" + name + "】\n")
		b.WriteString("YouTube: " + t.YouTubeURL + "\n")
		if t.TwitterURL != nil {
			b.WriteString("X: " + *t.TwitterURL + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
