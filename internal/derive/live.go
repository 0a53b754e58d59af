package derive

import (
	"fmt"
	"time"

	"github.com/magicien/Nij.iCal/internal/model"
)

// Ticket-derived UIDs replace the ticket UID's final character with a
// begin/end discriminator.
const (
	ticketBeginDiscriminator = "1"
	ticketEndDiscriminator   = "2"
)

// LiveEvents resolves raw live-event rows into Events, attaching tickets to
// their owning event and emitting sale-window sibling events. A row naming
// a talent absent from the table is a hard failure: the whole run aborts
// rather than silently dropping the reference.
func LiveEvents(rows []model.RawEvent, talents []model.Talent, tickets []model.Ticket) ([]model.Event, error) {
	byName := make(map[string]model.Talent, len(talents))
	for _, t := range talents {
		byName[t.Name] = t
	}

	ticketsByEvent := make(map[string][]model.Ticket)
	for _, tk := range tickets {
		ticketsByEvent[tk.EventUID] = append(ticketsByEvent[tk.EventUID], tk)
	}

	events := make([]model.Event, 0, len(rows))

	for _, row := range rows {
		eventTalents := make([]model.Talent, 0, len(row.TalentNames))
		for _, name := range row.TalentNames {
			t, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("event %s references unknown talent %q", row.UID, name)
			}
			eventTalents = append(eventTalents, t)
		}

		base := model.Event{
			UID:         row.UID,
			Timestamp:   row.Timestamp,
			Begin:       row.Begin,
			End:         row.End,
			Summary:     row.Summary,
			Location:    row.Location,
			Geo:         row.Geo,
			Description: row.Description,
			URL:         row.URL,
			Hashtag:     row.Hashtag,
			Talents:     eventTalents,
			Tickets:     ticketsByEvent[row.UID],
			Type:        model.TypeEvent,
		}
		events = append(events, base)
		events = append(events, ticketEvents(base)...)
	}

	return events, nil
}

// ticketEvents derives the sale-window announcements for an event: one
// TICKET_BEGIN per ticket with a sale-begin instant, then one TICKET_END
// per ticket with a sale-end instant. Siblings inherit the parent's talents
// but carry no tickets themselves, so derivation never nests.
func ticketEvents(parent model.Event) []model.Event {
	out := make([]model.Event, 0, len(parent.Tickets))

	for _, tk := range parent.Tickets {
		if tk.Begin == nil {
			continue
		}
		out = append(out, ticketEvent(parent, tk, *tk.Begin, ticketBeginDiscriminator, model.Text{
			Native:  tk.Summary.Native + " 販売開始",
			English: tk.Summary.English + " Ticket Sales Begin",
		}, model.TypeTicketBegin))
	}

	for _, tk := range parent.Tickets {
		if tk.End == nil {
			continue
		}
		out = append(out, ticketEvent(parent, tk, *tk.End, ticketEndDiscriminator, model.Text{
			Native:  tk.Summary.Native + " 販売終了",
			English: tk.Summary.English + " Ticket Sales End",
		}, model.TypeTicketEnd))
	}

	return out
}

func ticketEvent(parent model.Event, tk model.Ticket, begin time.Time, disc string, title model.Text, typ model.EventType) model.Event {
	url := parent.URL
	if tk.URL != nil {
		url = tk.URL
	}

	return model.Event{
		UID:         tk.UID[:len(tk.UID)-1] + disc,
		Timestamp:   tk.Timestamp,
		Begin:       begin,
		End:         begin.Add(30 * time.Minute),
		Summary:     title,
		Description: title,
		URL:         url,
		Talents:     parent.Talents,
		Type:        typ,
	}
}
