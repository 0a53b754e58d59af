// Package derive is the occurrence engine: pure functions expanding talent,
// ticket and live-event facts into the full set of calendar events. It is
// the only producer of model.Event values; everything here is deterministic
// and free of I/O.
package derive

import (
	"fmt"
	"time"

	"github.com/magicien/Nij.iCal/internal/model"
)

// UID kind codes replacing the trailing 6 characters of a talent UID,
// followed by a 4-digit year. The scheme is a consumer contract and must
// not change.
const (
	kindBirthday    = "01"
	kindAnniversary = "02" // debut anchor and every yearly occurrence
	kindStream      = "03"
	kindGraduation  = "99"
)

// anniversaryHorizonYears bounds the materialized series for active talents.
const anniversaryHorizonYears = 10

var organizationDay = time.Date(2019, time.February, 3, 0, 0, 0, 0, model.JST)

// TalentEvents derives the synthetic events for every non-organization
// talent, in talent-table order. Within a talent the order is: birthday,
// debut anchor, debut stream, anniversary series, graduation. now only
// bounds the anniversary horizon.
func TalentEvents(talents []model.Talent, now time.Time) []model.Event {
	events := make([]model.Event, 0, len(talents)*4)

	for _, t := range talents {
		if t.Name == model.OrganizationName {
			continue
		}

		if ev := BirthdayEvent(t); ev != nil {
			events = append(events, *ev)
		}
		events = append(events, DebutEvents(t)...)
		events = append(events, AnniversaryEvents(t, now)...)
		if ev := GraduationEvent(t); ev != nil {
			events = append(events, *ev)
		}
	}

	return events
}

// AnchorBirthday resolves a year-less month/day onto its first occurrence:
// the earliest midnight-JST date on/after firstTweet, skipping non-leap
// years for a Feb 29 birthday.
func AnchorBirthday(month time.Month, day int, firstTweet time.Time) time.Time {
	year := firstTweet.Year()
	for {
		if month == time.February && day == 29 && !isLeapYear(year) {
			year++
			continue
		}
		anchor := time.Date(year, month, day, 0, 0, 0, 0, model.JST)
		if anchor.Before(firstTweet) {
			year++
			continue
		}
		return anchor
	}
}

// BirthdayEvent builds the yearly all-day birthday, or nil when the
// birthday is unknown. RepeatUntil stays unset even for graduated talents
// so their birthdays keep showing; that is a recorded product decision.
func BirthdayEvent(t model.Talent) *model.Event {
	if t.Birthday == nil {
		return nil
	}

	begin := *t.Birthday
	label := model.Text{Native: "誕生日", English: "Birthday"}
	if t.BirthdayLabel != nil {
		label = *t.BirthdayLabel
	}
	title := model.Text{
		Native:  t.Name + " " + label.Native,
		English: t.EngName + " " + label.English,
	}

	return &model.Event{
		UID:         talentUID(t.UID, kindBirthday, begin.Year()),
		Timestamp:   t.Timestamp,
		Begin:       begin,
		End:         begin.AddDate(0, 0, 1),
		AllDay:      true,
		Yearly:      true,
		Summary:     title,
		Description: title,
		URL:         &t.YouTubeURL,
		Talents:     []model.Talent{t},
		Type:        model.TypeBirthday,
	}
}

// DebutEvents builds the two one-shot debut markers: the first-tweet anchor
// (which also heads the anniversary series, hence its kind code) and the
// first stream.
func DebutEvents(t model.Talent) []model.Event {
	anchorTitle := model.Text{
		Native:  t.Name + " 活動開始",
		English: t.EngName + " Debut",
	}
	streamTitle := model.Text{
		Native:  t.Name + " 初配信",
		English: t.EngName + " First Stream",
	}

	return []model.Event{
		{
			UID:         talentUID(t.UID, kindAnniversary, t.FirstTweet.UTC().Year()),
			Timestamp:   t.Timestamp,
			Begin:       t.FirstTweet,
			End:         t.FirstTweet.Add(30 * time.Minute),
			Summary:     anchorTitle,
			Description: anchorTitle,
			URL:         &t.YouTubeURL,
			Talents:     []model.Talent{t},
			Type:        model.TypeAnniversary,
		},
		{
			UID:         talentUID(t.UID, kindStream, t.FirstStream.UTC().Year()),
			Timestamp:   t.Timestamp,
			Begin:       t.FirstStream,
			End:         t.FirstStream.Add(30 * time.Minute),
			Summary:     streamTitle,
			Description: streamTitle,
			URL:         &t.YouTubeURL,
			Talents:     []model.Talent{t},
			Type:        model.TypeDebut,
		},
	}
}

// AnniversaryEvents materializes the yearly series, one event per year
// starting one year after the UTC-normalized debut, up to ten years past
// now, or up to the graduation year (one year less when the graduation
// falls before that year's anchor date). Each occurrence has a nominal
// one-second duration so the interval intersection in the matcher is
// non-empty.
func AnniversaryEvents(t model.Talent, now time.Time) []model.Event {
	date := t.FirstTweet.UTC().AddDate(1, 0, 0)
	startYear := date.Year()
	endYear := now.UTC().Year() + anniversaryHorizonYears
	if t.Graduation != nil {
		endYear = t.Graduation.Year()
		anchor := time.Date(endYear, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		if t.Graduation.Before(anchor) {
			endYear--
		}
	}

	jaAppend := "初ツイート：" + t.FirstTweet.Format("2006/01/02 15:04") + " （日本時間）\n" +
		"初配信：" + t.FirstStream.Format("2006/01/02") + " （日本時間）\n"
	enAppend := "First tweet: " + t.FirstTweet.Format("Jan 2, 2006, 15:04") + " (JST)\n" +
		"First stream: " + t.FirstStream.Format("Jan 2, 2006") + " (JST)\n"

	events := make([]model.Event, 0, endYear-startYear+1)
	debutYear := startYear - 1

	for year := startYear; year <= endYear; year++ {
		years := year - debutYear
		title := model.Text{
			Native:  fmt.Sprintf("%s %d周年", t.Name, years),
			English: fmt.Sprintf("%s %s Anniversary", t.EngName, Ordinal(years)),
		}
		description := model.Text{
			Native:  title.Native + "\n\n" + jaAppend,
			English: title.English + "\n\n" + enAppend,
		}

		events = append(events, model.Event{
			UID:         talentUID(t.UID, kindAnniversary, year),
			Timestamp:   t.Timestamp,
			Begin:       date,
			End:         date.Add(time.Second),
			Summary:     title,
			Description: description,
			URL:         &t.YouTubeURL,
			Talents:     []model.Talent{t},
			Type:        model.TypeAnniversary,
		})

		date = date.AddDate(1, 0, 0)
	}

	return events
}

// GraduationEvent builds the all-day retirement marker, or nil while the
// talent is active.
func GraduationEvent(t model.Talent) *model.Event {
	if t.Graduation == nil {
		return nil
	}

	begin := *t.Graduation
	title := model.Text{
		Native:  t.Name + " 卒業",
		English: t.EngName + " Graduation",
	}

	return &model.Event{
		UID:         talentUID(t.UID, kindGraduation, begin.Year()),
		Timestamp:   t.Timestamp,
		Begin:       begin,
		End:         begin.AddDate(0, 0, 1),
		AllDay:      true,
		Summary:     title,
		Description: title,
		URL:         &t.YouTubeURL,
		Talents:     []model.Talent{t},
		Type:        model.TypeGraduation,
	}
}

// OrganizationDayEvent builds the single yearly organization-anniversary
// event, owned by the sentinel talent. Its end equals its begin; the
// serializer omits DTEND for that case.
func OrganizationDayEvent(talents []model.Talent) (model.Event, error) {
	org, ok := findTalent(talents, model.OrganizationName)
	if !ok {
		return model.Event{}, fmt.Errorf("talent table has no %q row", model.OrganizationName)
	}

	title := model.Text{Native: "にじさんじの日", English: "Nijisanji Day"}

	return model.Event{
		UID:         talentUID(org.UID, kindBirthday, organizationDay.Year()),
		Timestamp:   org.Timestamp,
		Begin:       organizationDay,
		End:         organizationDay,
		AllDay:      true,
		Yearly:      true,
		Summary:     title,
		Description: title,
		URL:         &org.YouTubeURL,
		Talents:     []model.Talent{org},
		Type:        model.TypeAnniversary,
	}, nil
}

// Ordinal formats n with its English ordinal suffix: 1st, 2nd, 3rd, 4th,
// 11th-13th, 21st, ...
func Ordinal(n int) string {
	suffix := "th"
	if n/10%10 != 1 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func talentUID(base, kind string, year int) string {
	return base[:len(base)-6] + kind + fmt.Sprintf("%04d", year)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func findTalent(talents []model.Talent, name string) (model.Talent, bool) {
	for _, t := range talents {
		if t.Name == name {
			return t, true
		}
	}
	return model.Talent{}, false
}
