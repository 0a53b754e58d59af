package ical

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/magicien/Nij.iCal/internal/model"
)

func jst(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, model.JST)
}

func birthdayEvent() model.Event {
	url := "https://www.youtube.com/@tanakataro"
	return model.Event{
		UID:         "liver-taro-012019",
		Timestamp:   jst(2024, time.April, 1, 12, 0),
		Begin:       jst(2019, time.January, 15, 0, 0),
		End:         jst(2019, time.January, 16, 0, 0),
		AllDay:      true,
		Yearly:      true,
		Summary:     model.Text{Native: "田中太郎 誕生日", English: "Taro Tanaka Birthday"},
		Description: model.Text{Native: "田中太郎 誕生日", English: "Taro Tanaka Birthday"},
		URL:         &url,
		Type:        model.TypeBirthday,
	}
}

func TestEventFieldOrder(t *testing.T) {
	got := NewRenderer().Event(birthdayEvent(), model.LocaleJa)

	want := "BEGIN:VEVENT\r\n" +
		"UID:liver-taro-012019\r\n" +
		"DTSTAMP:20240401T030000Z\r\n" +
		"DTSTART:20190115\r\n" +
		"DTEND:20190116\r\n" +
		"RRULE:FREQ=YEARLY\r\n" +
		"TRANSP:TRANSPARENT\r\n" +
		"SUMMARY:田中太郎 誕生日\r\n" +
		"DESCRIPTION:田中太郎 誕生日\r\n" +
		"URL:https://www.youtube.com/@tanakataro\r\n" +
		"END:VEVENT\r\n"

	if got != want {
		t.Errorf("serialized event mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEventAllDayEqualEndsOmitDTEND(t *testing.T) {
	ev := birthdayEvent()
	ev.End = ev.Begin

	got := NewRenderer().Event(ev, model.LocaleJa)
	if strings.Contains(got, "DTEND") {
		t.Error("DTEND must be omitted when an all-day end equals its begin")
	}
	if !strings.Contains(got, "DTSTART:20190115\r\n") {
		t.Error("DTSTART missing")
	}
}

func TestEventTimedUsesUTCDatetimes(t *testing.T) {
	ev := model.Event{
		UID:         "live-2025-0001",
		Timestamp:   jst(2025, time.May, 1, 12, 0),
		Begin:       jst(2025, time.June, 1, 18, 0),
		End:         jst(2025, time.June, 1, 20, 0),
		Summary:     model.Text{Native: "ライブ", English: "Live"},
		Description: model.Text{Native: "ライブ", English: "Live"},
		Type:        model.TypeEvent,
	}

	got := NewRenderer().Event(ev, model.LocaleEn)
	if !strings.Contains(got, "DTSTART:20250601T090000Z\r\n") {
		t.Errorf("DTSTART not normalized to UTC:\n%s", got)
	}
	if !strings.Contains(got, "DTEND:20250601T110000Z\r\n") {
		t.Errorf("DTEND not normalized to UTC:\n%s", got)
	}
	if strings.Contains(got, "RRULE") {
		t.Error("non-yearly event must not carry an RRULE")
	}
}

func TestEventRepeatUntil(t *testing.T) {
	until := jst(2030, time.January, 16, 0, 0)
	ev := birthdayEvent()
	ev.RepeatUntil = &until

	got := NewRenderer().Event(ev, model.LocaleJa)
	if !strings.Contains(got, "RRULE:FREQ=YEARLY;UNTIL=20300115T150000Z\r\n") {
		t.Errorf("bounded RRULE missing:\n%s", got)
	}
}

func TestEventEscaping(t *testing.T) {
	ev := birthdayEvent()
	ev.Description = model.Text{Native: "一行目\n二行目", English: "line one\nline two"}

	got := NewRenderer().Event(ev, model.LocaleJa)
	if !strings.Contains(got, "DESCRIPTION:一行目\\n二行目") {
		t.Errorf("embedded newline not escaped:\n%s", got)
	}
}

func TestEscapingRoundTrip(t *testing.T) {
	ev := birthdayEvent()
	ev.Description = model.Text{Native: "一行目\n二行目", English: "line one\nline two"}
	cal := model.Calendar{
		Name:   model.Text{Native: "テスト", English: "Test"},
		Events: []model.Event{ev},
	}

	doc := NewRenderer().Document(cal, model.LocaleEn, nil)

	parsed, err := ics.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("generated document does not parse: %v", err)
	}
	events := parsed.Events()
	if len(events) != 1 {
		t.Fatalf("parsed %d events", len(events))
	}

	desc := events[0].GetProperty(ics.ComponentPropertyDescription).Value
	restored := strings.ReplaceAll(desc, "\\n", "\n")
	if restored != "line one\nline two" {
		t.Errorf("round trip lost the line break: %q", restored)
	}
}

func TestYearlyRuleCrossCheck(t *testing.T) {
	// The emitted RRULE, expanded by an independent implementation, must
	// land on the same month/day the event was anchored to.
	ev := birthdayEvent()

	r, err := rrule.StrToRRule("FREQ=YEARLY")
	if err != nil {
		t.Fatal(err)
	}
	r.DTStart(ev.Begin)

	occurrences := r.Between(jst(2023, time.January, 1, 0, 0), jst(2023, time.December, 31, 0, 0), true)
	if len(occurrences) != 1 {
		t.Fatalf("got %d occurrences in 2023", len(occurrences))
	}
	occ := occurrences[0]
	if occ.Month() != time.January || occ.Day() != 15 {
		t.Errorf("occurrence on %v, want Jan 15", occ)
	}
}

func TestDescriptionBlocks(t *testing.T) {
	hashtag := "大型ライブ"
	ticketURL := "https://tickets.example.com/123"
	begin := jst(2025, time.April, 10, 10, 0)
	end := jst(2025, time.May, 20, 23, 59)
	twitter := "https://x.com/tanaka_taro"

	ev := model.Event{
		UID:         "live-2025-0001",
		Timestamp:   jst(2025, time.May, 1, 12, 0),
		Begin:       jst(2025, time.June, 1, 18, 0),
		End:         jst(2025, time.June, 1, 20, 0),
		Summary:     model.Text{Native: "大型ライブ", English: "Big Live"},
		Description: model.Text{Native: "詳細", English: "Details"},
		Hashtag:     &hashtag,
		Tickets: []model.Ticket{{
			UID:     "tck-0001-0",
			Begin:   &begin,
			End:     &end,
			Summary: model.Text{Native: "先行チケット", English: "Early Tickets"},
			URL:     &ticketURL,
		}},
		Talents: []model.Talent{{
			Name:       "田中太郎",
			EngName:    "Taro Tanaka",
			YouTubeURL: "https://www.youtube.com/@tanakataro",
			TwitterURL: &twitter,
		}},
		Type: model.TypeEvent,
	}

	ja := NewRenderer().Event(ev, model.LocaleJa)
	wantJa := "DESCRIPTION:詳細" +
		"\\n\\nハッシュタグ：#大型ライブ\\nhttps://x.com/hashtag/大型ライブ" +
		"\\n\\n先行チケット\\n2025/4/10 10:00〜2025/5/20 23:59\\nhttps://tickets.example.com/123" +
		"\\n\\n==========\\n【田中太郎】\\nYouTube: https://www.youtube.com/@tanakataro\\nX: https://x.com/tanaka_taro\\n\\n" +
		"\r\n"
	if !strings.Contains(ja, wantJa) {
		t.Errorf("japanese description mismatch:\n%s", ja)
	}

	en := NewRenderer().Event(ev, model.LocaleEn)
	wantEn := "DESCRIPTION:Details" +
		"\\n\\nHashtag: #大型ライブ\\nhttps://x.com/hashtag/大型ライブ" +
		"\\n\\nEarly Tickets\\nfrom Apr 10, 2025, 10:00 until May 20, 2025, 23:59\\nhttps://tickets.example.com/123" +
		"\\n\\n==========\\n【Taro Tanaka】\\nYouTube: https://www.youtube.com/@tanakataro\\nX: https://x.com/tanaka_taro\\n\\n" +
		"\r\n"
	if !strings.Contains(en, wantEn) {
		t.Errorf("english description mismatch:\n%s", en)
	}
}

func TestTicketRangeOpenSides(t *testing.T) {
	begin := jst(2025, time.April, 10, 10, 0)
	end := jst(2025, time.May, 20, 23, 59)

	beginOnly := model.Ticket{Begin: &begin}
	endOnly := model.Ticket{End: &end}

	if got := ticketRange(beginOnly, model.LocaleJa); got != "2025/4/10 10:00〜" {
		t.Errorf("ja begin-only = %q", got)
	}
	if got := ticketRange(endOnly, model.LocaleJa); got != "〜2025/5/20 23:59" {
		t.Errorf("ja end-only = %q", got)
	}
	if got := ticketRange(beginOnly, model.LocaleEn); got != "from Apr 10, 2025, 10:00" {
		t.Errorf("en begin-only = %q", got)
	}
	if got := ticketRange(endOnly, model.LocaleEn); got != "until May 20, 2025, 23:59" {
		t.Errorf("en end-only = %q", got)
	}
}

func TestDocumentHeaderAndFooter(t *testing.T) {
	cal := model.Calendar{
		Name:   model.Text{Native: "にじさんじイベント", English: "Nijisanji Events"},
		Events: []model.Event{birthdayEvent()},
	}

	doc := NewRenderer().Document(cal, model.LocaleJa, nil)

	wantPrefix := "BEGIN:VCALENDAR\r\n" +
		"PRODID:-//magicien//NONSGML Nij.iCal//JA\r\n" +
		"METHOD:PUBLISH\r\n" +
		"VERSION:2.0\r\n" +
		"X-WR-CALNAME:にじさんじイベント\r\n" +
		"X-WR-TIMEZONE:Asia/Tokyo\r\n"
	if !strings.HasPrefix(doc, wantPrefix) {
		t.Errorf("header mismatch:\n%s", doc)
	}
	if !strings.HasSuffix(doc, "END:VCALENDAR\r\n") {
		t.Errorf("footer mismatch:\n%s", doc)
	}

	en := NewRenderer().Document(cal, model.LocaleEn, nil)
	if !strings.Contains(en, "X-WR-CALNAME:Nijisanji Events\r\n") {
		t.Errorf("english name missing:\n%s", en)
	}
}

func TestDocumentTalentFilter(t *testing.T) {
	taro := model.Talent{
		Name:       "田中太郎",
		EngName:    "Taro Tanaka",
		FirstTweet: jst(2018, time.February, 8, 10, 0),
	}
	org := model.Talent{Name: model.OrganizationName, EngName: "Nijisanji"}
	other := model.Talent{Name: "別人", EngName: "Someone Else"}

	direct := model.Event{
		UID: "direct", Begin: jst(2025, time.June, 1, 18, 0), End: jst(2025, time.June, 1, 20, 0),
		Summary: model.Text{Native: "a", English: "a"}, Talents: []model.Talent{taro}, Type: model.TypeEvent,
	}
	unrelated := model.Event{
		UID: "unrelated", Begin: jst(2025, time.June, 1, 18, 0), End: jst(2025, time.June, 1, 20, 0),
		Summary: model.Text{Native: "b", English: "b"}, Talents: []model.Talent{other}, Type: model.TypeEvent,
	}
	orgAfterDebut := model.Event{
		UID: "org-after", Begin: jst(2019, time.February, 3, 0, 0), End: jst(2019, time.February, 3, 0, 0),
		AllDay: true, Yearly: true,
		Summary: model.Text{Native: "c", English: "c"}, Talents: []model.Talent{org}, Type: model.TypeAnniversary,
	}
	orgBeforeDebut := model.Event{
		UID: "org-before", Begin: jst(2017, time.May, 1, 18, 0), End: jst(2017, time.May, 1, 20, 0),
		Summary: model.Text{Native: "d", English: "d"}, Talents: []model.Talent{org}, Type: model.TypeEvent,
	}

	cal := model.Calendar{
		Name:   model.Text{Native: "x", English: "x"},
		Events: []model.Event{direct, unrelated, orgAfterDebut, orgBeforeDebut},
	}

	doc := NewRenderer().Document(cal, model.LocaleJa, &taro)
	if !strings.Contains(doc, "UID:direct\r\n") {
		t.Error("direct membership missing")
	}
	if strings.Contains(doc, "UID:unrelated\r\n") {
		t.Error("unrelated event included")
	}
	if !strings.Contains(doc, "UID:org-after\r\n") {
		t.Error("organization event after debut missing")
	}
	if strings.Contains(doc, "UID:org-before\r\n") {
		t.Error("organization event before debut included")
	}
}

func TestDocumentTalentFilterGraduationCutoff(t *testing.T) {
	grad := jst(2023, time.June, 30, 0, 0)
	taro := model.Talent{
		Name:       "田中太郎",
		EngName:    "Taro Tanaka",
		FirstTweet: jst(2018, time.February, 8, 10, 0),
		Graduation: &grad,
	}
	org := model.Talent{Name: model.OrganizationName}

	onGradDay := model.Event{
		UID: "on-grad-day", Begin: jst(2023, time.June, 30, 18, 0), End: jst(2023, time.June, 30, 20, 0),
		Summary: model.Text{Native: "a", English: "a"}, Talents: []model.Talent{org}, Type: model.TypeEvent,
	}
	afterGrad := model.Event{
		UID: "after-grad", Begin: jst(2023, time.July, 1, 18, 0), End: jst(2023, time.July, 1, 20, 0),
		Summary: model.Text{Native: "b", English: "b"}, Talents: []model.Talent{org}, Type: model.TypeEvent,
	}

	cal := model.Calendar{
		Name:   model.Text{Native: "x", English: "x"},
		Events: []model.Event{onGradDay, afterGrad},
	}

	doc := NewRenderer().Document(cal, model.LocaleJa, &taro)
	if !strings.Contains(doc, "UID:on-grad-day\r\n") {
		t.Error("event on the graduation day itself must stay visible")
	}
	if strings.Contains(doc, "UID:after-grad\r\n") {
		t.Error("organization event after graduation included")
	}
}
