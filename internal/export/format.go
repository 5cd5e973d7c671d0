package export

import (
	"github.com/hygienequest/dashboard/internal/csvout"
	"github.com/hygienequest/dashboard/internal/model"
)

// Data-type labels as they appear in requests, filenames and audit trails.
const (
	DataAttendance = "Attendance Data"
	DataUsers      = "User Registrations"
)

// AttendanceHeaders maps record keys to the display column names.
var AttendanceHeaders = map[string]string{
	"teacher_name":     "Teacher Name",
	"school":           "School",
	"district":         "District",
	"phone":            "Phone",
	"topic_covered":    "Topic Covered",
	"students_present": "Students Present",
	"students_absent":  "Students Absent",
	"absence_reason":   "Absence Reason",
}

// UserHeaders maps user-record keys to the display column names.
var UserHeaders = map[string]string{
	"name":     "Name",
	"phone":    "Phone",
	"school":   "School",
	"district": "District",
	"language": "Language",
}

// AttendanceRows converts attendance records into export rows. Column order
// is fixed regardless of which fields the server populated.
func AttendanceRows(records []model.AttendanceRecord) []csvout.Record {
	rows := make([]csvout.Record, 0, len(records))
	for _, rec := range records {
		rows = append(rows, csvout.R(
			"teacher_name", rec.TeacherName,
			"school", rec.School,
			"district", rec.District,
			"phone", rec.Phone,
			"topic_covered", rec.TopicCovered,
			"students_present", rec.StudentsPresent,
			"students_absent", rec.StudentsAbsent,
			"absence_reason", rec.AbsenceReason,
		))
	}
	return rows
}

// UserRows converts user records into export rows.
func UserRows(users []model.UserRecord) []csvout.Record {
	rows := make([]csvout.Record, 0, len(users))
	for _, u := range users {
		rows = append(rows, csvout.R(
			"name", u.Name,
			"phone", u.Phone,
			"school", u.School,
			"district", u.District,
			"language", u.Language,
		))
	}
	return rows
}
