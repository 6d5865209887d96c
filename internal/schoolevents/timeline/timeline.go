package timeline

import "time"

// Milestones are the concrete dates derived from an event date and its thresholds.
type Milestones struct {
	EventDate               time.Time `json:"eventDate"`
	EarlyBirdDeadline       time.Time `json:"earlyBirdDeadline"`
	SchulsongClothingCutoff time.Time `json:"schulsongClothingCutoff"`
	MerchandiseDeadline     time.Time `json:"merchandiseDeadline"`
	SchulsongRelease        time.Time `json:"schulsongRelease"`
	AudioRelease            time.Time `json:"audioRelease"`
}

// DateFor returns the milestone date for key, offset from the event date.
func DateFor(eventDate time.Time, key ThresholdKey, overrides Overrides) time.Time {
	days := GetThreshold(key, overrides)
	return startOfDay(eventDate).AddDate(0, 0, int(key.Direction())*days)
}

// Build derives every milestone for an event.
func Build(eventDate time.Time, overrides Overrides) Milestones {
	return Milestones{
		EventDate:               startOfDay(eventDate),
		EarlyBirdDeadline:       DateFor(eventDate, EarlyBirdDeadlineDays, overrides),
		SchulsongClothingCutoff: DateFor(eventDate, SchulsongClothingCutoffDays, overrides),
		MerchandiseDeadline:     DateFor(eventDate, MerchandiseDeadlineDays, overrides),
		SchulsongRelease:        DateFor(eventDate, SchulsongReleaseDays, overrides),
		AudioRelease:            DateFor(eventDate, AudioReleaseDays, overrides),
	}
}

// Reached reports whether now is on or after the milestone day.
func Reached(milestone, now time.Time) bool {
	return !now.Before(milestone)
}

// EarlyBirdOpen reports whether the early-bird window is still open on now.
// The deadline day itself is included.
func (m Milestones) EarlyBirdOpen(now time.Time) bool {
	return now.Before(m.EarlyBirdDeadline.AddDate(0, 0, 1))
}

// MerchandiseOpen reports whether parents can still order merchandise on now.
func (m Milestones) MerchandiseOpen(now time.Time) bool {
	return now.Before(m.MerchandiseDeadline.AddDate(0, 0, 1))
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
