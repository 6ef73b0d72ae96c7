package domain

import "time"

// TimelineEvent is a historical space-exploration event shown alongside the publication timeline.
type TimelineEvent struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Year returns the calendar year of the event.
func (e TimelineEvent) Year() int {
	return e.Date.Year()
}
