package notify

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

// invite builds a single-event calendar for the guest. Cancellations reuse the
// booking UID with STATUS:CANCELLED so calendar clients drop the entry.
func invite(p bookingPayload, cancelled bool, now time.Time) ([]byte, error) {
	start, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.RFC3339, p.EndTime)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetProductId("-//meetslot//notification-service//EN")
	if cancelled {
		cal.SetMethod(ics.MethodCancel)
	} else {
		cal.SetMethod(ics.MethodRequest)
	}

	ev := cal.AddEvent(p.BookingID + "@meetslot")
	ev.SetDtStampTime(now.UTC())
	ev.SetStartAt(start.UTC())
	ev.SetEndAt(end.UTC())
	ev.SetSummary(p.EventTitle)
	if p.Location != "" {
		ev.SetLocation(p.Location)
	}
	ev.AddAttendee("mailto:" + p.GuestEmail)
	if cancelled {
		ev.SetStatus(ics.ObjectStatusCancelled)
	} else {
		ev.SetStatus(ics.ObjectStatusConfirmed)
	}
	return []byte(cal.Serialize()), nil
}
