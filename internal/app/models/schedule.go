package models

import "time"

// Weekdays lists the keys a schedule's Days map is expected to use, in order
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Lesson is one slot of a timetable day
type Lesson struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher,omitempty"`
	Room    string `json:"room,omitempty"`
}

// Schedule is a weekly timetable. System schedules have no UserID; a
// user-bound copy carries the owner's id and the system schedule it came from.
type Schedule struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Days      map[string][]Lesson `json:"days"`
	UserID    UserID              `json:"userId,omitempty"`
	SourceID  string              `json:"sourceId,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// IsSystem reports whether the schedule is shared rather than user-bound
func (s *Schedule) IsSystem() bool {
	return s.UserID == ""
}

// CloneDays deep-copies the timetable so a user copy never aliases its source
func (s *Schedule) CloneDays() map[string][]Lesson {
	days := make(map[string][]Lesson, len(s.Days))
	for day, lessons := range s.Days {
		days[day] = append([]Lesson(nil), lessons...)
	}
	return days
}
