package calendar

import (
	"fmt"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// Issue describes a structural problem found in a calendar. Resolution keeps
// working on calendars with issues; first match in insertion order still wins.
type Issue struct {
	Semester models.SemesterID `json:"semester"`
	EventID  string            `json:"event_id"`
	Message  string            `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s/%s: %s", i.Semester, i.EventID, i.Message)
}

// Validate reports inverted ranges, teaching events without a week index and
// overlapping events within the same semester.
func Validate(cal *models.AcademicCalendar) []Issue {
	if cal == nil {
		return nil
	}
	var issues []Issue
	for _, id := range []models.SemesterID{models.Semester1, models.Semester2} {
		events := cal.Semester(id).Events
		for i, ev := range events {
			if ev.End.Before(ev.Start) {
				issues = append(issues, Issue{Semester: id, EventID: ev.ID, Message: "end is before start"})
			}
			if ev.Type == models.EventTypeTeaching && ev.TeachingWeekIndexStart == nil {
				issues = append(issues, Issue{Semester: id, EventID: ev.ID, Message: "teaching event has no week index"})
			}
			for _, other := range events[i+1:] {
				if !ev.End.Before(other.Start) && !other.End.Before(ev.Start) {
					issues = append(issues, Issue{
						Semester: id,
						EventID:  ev.ID,
						Message:  fmt.Sprintf("overlaps event %s", other.ID),
					})
				}
			}
		}
	}
	return issues
}
