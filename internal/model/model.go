package model

import "time"

// JST is the fixed civil timezone all source facts are expressed in and all
// date-level decisions (matching, digests) are made in. The generator never
// consults the host timezone.
var JST = time.FixedZone("+09:00", 9*60*60)

// OrganizationName is the sentinel talent representing the whole
// organization. It is excluded from per-talent outputs but its events show
// up on every individual calendar (see ical.Document).
const OrganizationName = "にじさんじ"

// Locale selects which half of a bilingual Text is rendered. The value
// doubles as the per-locale output directory name.
type Locale string

const (
	LocaleJa Locale = "ja"
	LocaleEn Locale = "en"
)

// Text is a bilingual string pair. Optional bilingual fields are *Text,
// normalized once at load time so downstream code never re-checks emptiness.
type Text struct {
	Native  string
	English string
}

// In returns the half of the pair matching loc.
func (t Text) In(loc Locale) string {
	if loc == LocaleEn {
		return t.English
	}
	return t.Native
}

// EventType tags the kind of occurrence an Event represents. It is a closed
// set: the matcher and the serializer switch over it exhaustively.
type EventType int

const (
	TypeUnknown EventType = iota
	TypeEvent
	TypeBirthday
	TypeAnniversary
	TypeDebut
	TypeGraduation
	TypeTicketBegin
	TypeTicketEnd
)

func (t EventType) String() string {
	switch t {
	case TypeEvent:
		return "EVENT"
	case TypeBirthday:
		return "BIRTHDAY"
	case TypeAnniversary:
		return "ANNIVERSARY"
	case TypeDebut:
		return "DEBUT"
	case TypeGraduation:
		return "GRADUATION"
	case TypeTicketBegin:
		return "TICKET_BEGIN"
	case TypeTicketEnd:
		return "TICKET_END"
	default:
		return "UNKNOWN"
	}
}

// Talent is one tracked persona. Values are built once by the loader and
// never mutated afterwards.
type Talent struct {
	UID      string
	Name     string // native display name
	EngName  string // romanized display name
	Furigana string // phonetic reading, used by the index page search tags

	// Birthday is the anchored first occurrence (midnight JST), already
	// adjusted to the first year on/after the debut. Nil when unknown.
	Birthday      *time.Time
	BirthdayLabel *Text // custom label; nil means the generic "Birthday"

	FirstTweet  time.Time // first public activity
	FirstStream time.Time // first broadcast

	YouTubeURL string
	TwitterURL *string

	Description Text

	// Graduation is midnight JST of the retirement date, nil while active.
	Graduation *time.Time

	Timestamp time.Time // row update stamp
}

// Ticket is a sale/availability window attached to one live event. At least
// one of Begin/End is set; rows with neither are dropped by the loader.
type Ticket struct {
	UID       string
	Timestamp time.Time
	EventUID  string
	Begin     *time.Time
	End       *time.Time
	Summary   Text
	URL       *string
}

// Event is a single immutable occurrence record.
type Event struct {
	UID       string
	Timestamp time.Time

	Begin  time.Time
	End    time.Time
	AllDay bool

	// Yearly marks a single record recurring every year on Begin's
	// month/day, optionally bounded by RepeatUntil.
	Yearly      bool
	RepeatUntil *time.Time

	Summary     Text
	Location    *Text
	Geo         *string
	Description Text
	URL         *string
	Hashtag     *string

	Talents []Talent
	Tickets []Ticket

	Type EventType
}

// Calendar is an ordered collection of events plus display metadata.
// Duplicate UIDs are a caller error; no dedup is attempted.
type Calendar struct {
	Name   Text
	Events []Event
}
