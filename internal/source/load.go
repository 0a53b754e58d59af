// Package source loads the talent/event/ticket tables from CSV, validating
// the schema by column name and normalizing optional fields once so that
// derivation and rendering never re-check presence.
package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magicien/Nij.iCal/internal/derive"
	appLog "github.com/magicien/Nij.iCal/internal/log"
	"github.com/magicien/Nij.iCal/internal/model"
)

const (
	stampLayout   = "2006/01/02 15:04:05"
	instantLayout = "2006/01/02 15:04"
	dateLayout    = "2006/01/02"
)

var talentColumns = []string{
	"name", "uid", "timestamp", "eng_name", "furigana",
	"birthday", "birthday_label", "eng_birthday_label",
	"first_tweet", "first_stream", "youtube_url", "twitter_url",
	"description", "eng_description", "graduation_date",
}

var eventColumns = []string{
	"title", "uid", "timestamp", "eng_title", "begin", "end",
	"location", "eng_location", "geo", "description", "eng_description",
	"url", "talents", "hashtag",
}

var ticketColumns = []string{
	"title", "uid", "timestamp", "eng_title", "event_uid",
	"begin", "end", "url",
}

// Facts is everything the derivation engine consumes.
type Facts struct {
	Talents []model.Talent
	Events  []model.RawEvent
	Tickets []model.Ticket
}

// Load fetches and parses all three tables. An empty ticketsSrc is allowed:
// not every deployment tracks sale windows.
func (f *Fetcher) Load(ctx context.Context, talentsSrc, eventsSrc, ticketsSrc string) (*Facts, error) {
	data, err := f.Fetch(ctx, talentsSrc)
	if err != nil {
		return nil, fmt.Errorf("talents: %w", err)
	}
	talents, err := ParseTalents(data)
	if err != nil {
		return nil, err
	}

	data, err = f.Fetch(ctx, eventsSrc)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	events, err := ParseEvents(data)
	if err != nil {
		return nil, err
	}

	var tickets []model.Ticket
	if ticketsSrc != "" {
		data, err = f.Fetch(ctx, ticketsSrc)
		if err != nil {
			return nil, fmt.Errorf("tickets: %w", err)
		}
		tickets, err = ParseTickets(data)
		if err != nil {
			return nil, err
		}
	}

	appLog.Info("facts loaded",
		"talents", len(talents),
		"events", len(events),
		"tickets", len(tickets),
	)

	return &Facts{Talents: talents, Events: events, Tickets: tickets}, nil
}

// ParseTalents parses the talent table, preserving row order.
func ParseTalents(data []byte) ([]model.Talent, error) {
	tbl, err := parseTable("talents", data, talentColumns)
	if err != nil {
		return nil, err
	}

	talents := make([]model.Talent, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		t, err := parseTalent(tbl, i+1, row)
		if err != nil {
			return nil, err
		}
		talents = append(talents, t)
	}
	return talents, nil
}

func parseTalent(tbl *table, rowNum int, row []string) (model.Talent, error) {
	var t model.Talent

	t.Name = tbl.get(row, "name")
	t.UID = tbl.get(row, "uid")
	t.EngName = tbl.get(row, "eng_name")
	t.Furigana = tbl.get(row, "furigana")
	t.YouTubeURL = tbl.get(row, "youtube_url")
	t.TwitterURL = optional(tbl.get(row, "twitter_url"))
	t.Description = model.Text{
		Native:  tbl.get(row, "description"),
		English: tbl.get(row, "eng_description"),
	}

	if t.Name == "" || t.UID == "" {
		return t, fmt.Errorf("talents row %d: name and uid are required", rowNum)
	}
	// The UID scheme replaces the trailing 6 characters; shorter ids
	// cannot produce derived event UIDs.
	if len(t.UID) <= 6 {
		return t, fmt.Errorf("talents row %d: uid %q is too short", rowNum, t.UID)
	}

	var err error
	if t.Timestamp, err = parseTime("talents", rowNum, "timestamp", stampLayout, tbl.get(row, "timestamp")); err != nil {
		return t, err
	}
	if t.FirstTweet, err = parseTime("talents", rowNum, "first_tweet", instantLayout, tbl.get(row, "first_tweet")); err != nil {
		return t, err
	}
	if t.FirstStream, err = parseTime("talents", rowNum, "first_stream", instantLayout, tbl.get(row, "first_stream")); err != nil {
		return t, err
	}

	if v := tbl.get(row, "birthday"); v != "" {
		month, day, err := parseMonthDay(v)
		if err != nil {
			return t, fmt.Errorf("talents row %d: bad birthday %q: %w", rowNum, v, err)
		}
		anchored := derive.AnchorBirthday(month, day, t.FirstTweet)
		t.Birthday = &anchored
	}

	// A half-supplied custom label keeps the generic default for the
	// other locale, matching the per-locale fallback downstream.
	if ja, en := tbl.get(row, "birthday_label"), tbl.get(row, "eng_birthday_label"); ja != "" || en != "" {
		if ja == "" {
			ja = "誕生日"
		}
		if en == "" {
			en = "Birthday"
		}
		t.BirthdayLabel = &model.Text{Native: ja, English: en}
	}

	if v := tbl.get(row, "graduation_date"); v != "" {
		grad, err := parseTime("talents", rowNum, "graduation_date", dateLayout, v)
		if err != nil {
			return t, err
		}
		t.Graduation = &grad
	}

	return t, nil
}

// ParseEvents parses the live-event table into raw rows; talent names are
// resolved later by the derivation engine.
func ParseEvents(data []byte) ([]model.RawEvent, error) {
	tbl, err := parseTable("events", data, eventColumns)
	if err != nil {
		return nil, err
	}

	events := make([]model.RawEvent, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		rowNum := i + 1

		ev := model.RawEvent{
			UID: tbl.get(row, "uid"),
			Summary: model.Text{
				Native:  tbl.get(row, "title"),
				English: tbl.get(row, "eng_title"),
			},
			Description: model.Text{
				Native:  tbl.get(row, "description"),
				English: tbl.get(row, "eng_description"),
			},
			Location: optionalText(tbl.get(row, "location"), tbl.get(row, "eng_location")),
			Geo:      optional(tbl.get(row, "geo")),
			URL:      optional(tbl.get(row, "url")),
			Hashtag:  optional(strings.TrimPrefix(tbl.get(row, "hashtag"), "#")),
		}

		if ev.UID == "" {
			return nil, fmt.Errorf("events row %d: uid is required", rowNum)
		}

		if ev.Timestamp, err = parseTime("events", rowNum, "timestamp", stampLayout, tbl.get(row, "timestamp")); err != nil {
			return nil, err
		}
		if ev.Begin, err = parseTime("events", rowNum, "begin", instantLayout, tbl.get(row, "begin")); err != nil {
			return nil, err
		}
		if ev.End, err = parseTime("events", rowNum, "end", instantLayout, tbl.get(row, "end")); err != nil {
			return nil, err
		}

		names := tbl.get(row, "talents")
		if names == "" {
			return nil, fmt.Errorf("events row %d: talents is required", rowNum)
		}
		for _, name := range strings.Split(names, ",") {
			ev.TalentNames = append(ev.TalentNames, strings.TrimSpace(name))
		}

		events = append(events, ev)
	}
	return events, nil
}

// ParseTickets parses the ticket table. A row with neither begin nor end is
// dropped with a log line, not an error.
func ParseTickets(data []byte) ([]model.Ticket, error) {
	tbl, err := parseTable("tickets", data, ticketColumns)
	if err != nil {
		return nil, err
	}

	tickets := make([]model.Ticket, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		rowNum := i + 1

		tk := model.Ticket{
			UID:      tbl.get(row, "uid"),
			EventUID: tbl.get(row, "event_uid"),
			Summary: model.Text{
				Native:  tbl.get(row, "title"),
				English: tbl.get(row, "eng_title"),
			},
			URL: optional(tbl.get(row, "url")),
		}

		if tk.UID == "" || tk.EventUID == "" {
			return nil, fmt.Errorf("tickets row %d: uid and event_uid are required", rowNum)
		}

		if tk.Timestamp, err = parseTime("tickets", rowNum, "timestamp", stampLayout, tbl.get(row, "timestamp")); err != nil {
			return nil, err
		}

		if v := tbl.get(row, "begin"); v != "" {
			begin, err := parseTime("tickets", rowNum, "begin", instantLayout, v)
			if err != nil {
				return nil, err
			}
			tk.Begin = &begin
		}
		if v := tbl.get(row, "end"); v != "" {
			end, err := parseTime("tickets", rowNum, "end", instantLayout, v)
			if err != nil {
				return nil, err
			}
			tk.End = &end
		}

		if tk.Begin == nil && tk.End == nil {
			appLog.Info("ticket has no sale window, dropped", "uid", tk.UID, "event_uid", tk.EventUID)
			continue
		}

		tickets = append(tickets, tk)
	}
	return tickets, nil
}

func parseTime(table string, rowNum int, field, layout, value string) (time.Time, error) {
	ts, err := time.ParseInLocation(layout, value, model.JST)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s row %d: bad %s %q", table, rowNum, field, value)
	}
	return ts, nil
}

func parseMonthDay(v string) (time.Month, int, error) {
	parts := strings.SplitN(v, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want M/D")
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("bad month %q", parts[0])
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("bad day %q", parts[1])
	}
	return time.Month(month), day, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// optionalText builds a bilingual pair, filling a missing half from the
// present one so renderers never emit an empty line.
func optionalText(native, english string) *model.Text {
	if native == "" && english == "" {
		return nil
	}
	if native == "" {
		native = english
	}
	if english == "" {
		english = native
	}
	return &model.Text{Native: native, English: english}
}
