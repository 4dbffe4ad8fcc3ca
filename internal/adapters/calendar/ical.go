// Package calendar renders events as iCalendar documents.
package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"eventbooking/internal/domain"
)

const (
	productID = "-//eventbooking//EN"
	uidDomain = "eventbooking"

	// Events carry only a start time; exports assume this length.
	defaultDuration = time.Hour
)

// Encoder writes events as VCALENDAR documents.
type Encoder struct {
	now func() time.Time
}

// NewEncoder returns an Encoder stamping DTSTAMP with the current time.
func NewEncoder() *Encoder {
	return &Encoder{now: time.Now}
}

// Encode writes a calendar containing a single VEVENT for event to w.
func (e *Encoder) Encode(w io.Writer, event *domain.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, e.toVEvent(event))

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func (e *Encoder) toVEvent(event *domain.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID+"@"+uidDomain)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, e.now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.ScheduledAt.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.ScheduledAt.Add(defaultDuration).UTC())
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.Category != "" {
		ve.Props.SetText(ical.PropCategories, event.Category)
	}
	return ve
}
