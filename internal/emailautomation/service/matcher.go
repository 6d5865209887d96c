package service

import (
	"time"

	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/shared/eventref"
)

// Trigger types.
const (
	TriggerScheduled = "scheduled"
	TriggerOnRelease = "on_release"
)

// EventMatchesTemplate reports whether every tier filter the template sets
// equals the event's flag. Unset filters match any event.
func EventMatchesTemplate(ev *eventref.Event, t repository.Template) bool {
	return filterMatches(t.FilterIsMinimusikertag, ev.IsMinimusikertag) &&
		filterMatches(t.FilterIsPlus, ev.IsPlus) &&
		filterMatches(t.FilterIsSchulsong, ev.IsSchulsong) &&
		filterMatches(t.FilterIsKita, ev.IsKita)
}

func filterMatches(filter *bool, value bool) bool {
	return filter == nil || *filter == value
}

// IsDue reports whether a scheduled template fires for an event on the day
// of now. The send day is the event date shifted by the template's trigger
// days; a trigger hour holds the send back until that hour of now's zone.
func IsDue(t repository.Template, eventDate, now time.Time) bool {
	if t.TriggerType != TriggerScheduled {
		return false
	}
	if !sameDay(sendDay(t, eventDate), now) {
		return false
	}
	return t.TriggerHour == nil || now.Hour() >= *t.TriggerHour
}

func sendDay(t repository.Template, eventDate time.Time) time.Time {
	return calendarDay(eventDate).AddDate(0, 0, t.TriggerDays)
}

// calendarDay drops the clock and zone and keeps the wall date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(day, now time.Time) bool {
	return calendarDay(day).Equal(calendarDay(now))
}
