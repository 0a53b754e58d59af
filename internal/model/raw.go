package model

import "time"

// RawEvent is a live-event source row before talent resolution. The loader
// produces these; the derivation engine turns them into Events, failing the
// run when a referenced talent name is unknown.
type RawEvent struct {
	UID       string
	Timestamp time.Time
	Begin     time.Time
	End       time.Time

	Summary     Text
	Location    *Text
	Geo         *string
	Description Text
	URL         *string
	Hashtag     *string

	// TalentNames are the native names referenced by the row, in source
	// order.
	TalentNames []string
}
