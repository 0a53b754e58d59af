// Package publish assembles every calendar document and index page for a
// run and writes them out. A run either writes the complete, validated set
// or nothing: a half-written cross-locale pair must never be committed.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/magicien/Nij.iCal/internal/derive"
	"github.com/magicien/Nij.iCal/internal/ical"
	appLog "github.com/magicien/Nij.iCal/internal/log"
	"github.com/magicien/Nij.iCal/internal/model"
	"github.com/magicien/Nij.iCal/internal/source"
)

var locales = []model.Locale{model.LocaleJa, model.LocaleEn}

// Publisher renders and writes the full output set.
type Publisher struct {
	Renderer  ical.Renderer
	OutputDir string
	URLPrefix string
}

// Derive expands the loaded facts into the live and talent event lists, in
// the deterministic order the documents and digests depend on.
func Derive(facts *source.Facts, now time.Time) (live, talent []model.Event, err error) {
	live, err = derive.LiveEvents(facts.Events, facts.Talents, facts.Tickets)
	if err != nil {
		return nil, nil, err
	}

	talent = derive.TalentEvents(facts.Talents, now)
	orgDay, err := derive.OrganizationDayEvent(facts.Talents)
	if err != nil {
		return nil, nil, err
	}
	talent = append(talent, orgDay)

	return live, talent, nil
}

// Run derives all events and writes every document: the live-event and
// birthday calendars, one combined calendar per non-sentinel talent, and
// the per-locale index pages.
func (p *Publisher) Run(facts *source.Facts, now time.Time) error {
	live, talent, err := Derive(facts, now)
	if err != nil {
		return err
	}

	docs := make(map[string]string)

	liveCal := model.Calendar{
		Name:   model.Text{Native: "にじさんじイベント", English: "Nijisanji Events"},
		Events: live,
	}
	birthdayCal := model.Calendar{
		Name:   model.Text{Native: "にじさんじ誕生日", English: "Nijisanji Birthdays"},
		Events: talent,
	}

	for _, loc := range locales {
		docs[filepath.Join(string(loc), "events.ics")] = p.Renderer.Document(liveCal, loc, nil)
		docs[filepath.Join(string(loc), "birthdays.ics")] = p.Renderer.Document(birthdayCal, loc, nil)
	}

	combined := model.Calendar{Events: append(append([]model.Event{}, live...), talent...)}
	for _, t := range facts.Talents {
		if t.Name == model.OrganizationName {
			continue
		}
		cal := combined
		cal.Name = model.Text{Native: t.Name, English: t.EngName}

		talentCopy := t
		for _, loc := range locales {
			docs[filepath.Join(string(loc), talentFileName(t))] = p.Renderer.Document(cal, loc, &talentCopy)
		}
	}

	docs[filepath.Join("ja", "calendars.md")] = p.indexPage(facts.Talents, model.LocaleJa)
	docs[filepath.Join("en", "calendars.md")] = p.indexPage(facts.Talents, model.LocaleEn)

	if err := p.validate(docs); err != nil {
		return err
	}
	if err := p.write(docs); err != nil {
		return err
	}

	appLog.Info("calendars published",
		"documents", len(docs),
		"live_events", len(live),
		"talent_events", len(talent),
		"output_dir", p.OutputDir,
	)
	return nil
}

// validate re-parses every generated calendar with an independent iCalendar
// implementation before anything touches disk.
func (p *Publisher) validate(docs map[string]string) error {
	for path, doc := range docs {
		if !strings.HasSuffix(path, ".ics") {
			continue
		}
		if _, err := ics.ParseCalendar(strings.NewReader(doc)); err != nil {
			return fmt.Errorf("generated %s does not parse: %w", path, err)
		}
	}
	return nil
}

func (p *Publisher) write(docs map[string]string) error {
	paths := make([]string, 0, len(docs))
	for path := range docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		full := filepath.Join(p.OutputDir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(docs[path]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", full, err)
		}
	}
	return nil
}

// indexPage renders the calendar list page for one locale: a search form
// and a table of per-talent subscription links, ordered by debut.
func (p *Publisher) indexPage(talents []model.Talent, loc model.Locale) string {
	sorted := append([]model.Talent{}, talents...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstTweet.Before(sorted[j].FirstTweet)
	})

	var b strings.Builder
	b.WriteString("\uFEFF") // the pages site serves these with a BOM

	if loc == model.LocaleEn {
		b.WriteString("<form action='#' class='search-form' onsubmit='return false;'><input id='liver-filter-input' placeholder='Search' /></form>\n")
		b.WriteString("<table><thead><tr><th>Name</th><th>English</th><th>Japanese</th></tr></thead><tbody>\n")
	} else {
		b.WriteString("<form action='#' class='search-form' onsubmit='return false;'><input id='liver-filter-input' placeholder='検索'/></form>\n")
		b.WriteString("<table><thead><tr><th>名前</th><th>日本語</th><th>英語</th></tr></thead><tbody>\n")
	}

	for _, t := range sorted {
		if t.Name == model.OrganizationName {
			continue
		}

		fileName := talentFileName(t)
		jaURL := p.URLPrefix + "/ja/" + fileName
		enURL := p.URLPrefix + "/en/" + fileName
		row := fmt.Sprintf("<tr class='liver-item' tags='%s,%s,%s'>",
			t.Name, strings.ToLower(t.EngName), t.Furigana)

		if loc == model.LocaleEn {
			b.WriteString(row +
				"<td>" + t.EngName + "</td>" +
				"<td><a href='" + enURL + "'>English</a></td>" +
				"<td><a href='" + jaURL + "'>Japanese</a></td>" +
				"</tr>\n")
		} else {
			b.WriteString(row +
				"<td>" + t.Name + "</td>" +
				"<td><a href='" + jaURL + "'>日本語</a></td>" +
				"<td><a href='" + enURL + "'>英語</a></td>" +
				"</tr>\n")
		}
	}

	b.WriteString("</tbody></table>\n")
	return b.String()
}

func talentFileName(t model.Talent) string {
	return strings.ToLower(strings.ReplaceAll(t.EngName, " ", "_")) + ".ics"
}
