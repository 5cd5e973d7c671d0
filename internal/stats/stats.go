// Package stats computes the dashboard aggregates over attendance and
// registration records.
package stats

import (
	"math"
	"strings"

	"github.com/hygienequest/dashboard/internal/model"
)

// Calculate produces the headline dashboard numbers.
func Calculate(attendance []model.AttendanceRecord, users []model.UserRecord) model.DashboardStats {
	var present, absent int
	teachers := map[string]struct{}{}
	for _, a := range attendance {
		present += a.StudentsPresent
		absent += a.StudentsAbsent
		teachers[a.Phone] = struct{}{}
	}

	schools := map[string]struct{}{}
	districts := map[string]struct{}{}
	for _, u := range users {
		schools[u.School] = struct{}{}
		districts[u.District] = struct{}{}
	}

	var rate float64
	if total := present + absent; total > 0 {
		rate = math.Round(float64(present)/float64(total)*1000) / 10
	}

	return model.DashboardStats{
		TotalPresent:   present,
		TotalAbsent:    absent,
		AttendanceRate: rate,
		TotalSchools:   len(schools),
		TotalDistricts: len(districts),
		TotalTeachers:  len(teachers),
	}
}

// Absence-reason buckets, keyword-matched against the free-text reason.
const (
	ReasonHealth  = "Health Issues"
	ReasonWeather = "Bad Weather"
	ReasonFees    = "School Fees"
	ReasonOther   = "Other Reasons"
)

// ReasonCount is one aggregated absence-reason bucket.
type ReasonCount struct {
	Name  string
	Count int
}

// AbsenceReasons buckets absentee counts by reason keyword. Bucket order is
// fixed; empty buckets are omitted.
func AbsenceReasons(attendance []model.AttendanceRecord) []ReasonCount {
	counts := map[string]int{}
	for _, rec := range attendance {
		counts[bucketReason(rec.AbsenceReason)] += rec.StudentsAbsent
	}
	out := make([]ReasonCount, 0, 4)
	for _, name := range []string{ReasonHealth, ReasonWeather, ReasonFees, ReasonOther} {
		if n, ok := counts[name]; ok {
			out = append(out, ReasonCount{Name: name, Count: n})
		}
	}
	return out
}

func bucketReason(reason string) string {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "sick"), strings.Contains(r, "flu"), strings.Contains(r, "malaria"):
		return ReasonHealth
	case strings.Contains(r, "weather"), strings.Contains(r, "rain"):
		return ReasonWeather
	case strings.Contains(r, "fees"):
		return ReasonFees
	default:
		return ReasonOther
	}
}

// Enrich joins attendance records against user records on phone, filling in
// teacher name, school and district for display and export.
func Enrich(attendance []model.AttendanceRecord, users []model.UserRecord) []model.AttendanceRecord {
	byPhone := make(map[string]model.UserRecord, len(users))
	for _, u := range users {
		byPhone[u.Phone] = u
	}
	out := make([]model.AttendanceRecord, len(attendance))
	for i, rec := range attendance {
		if u, ok := byPhone[rec.Phone]; ok {
			rec.TeacherName = u.Name
			rec.School = u.School
			rec.District = u.District
		} else {
			rec.TeacherName = "Unknown Teacher"
			rec.School = "Unknown School"
			rec.District = "Unknown District"
		}
		out[i] = rec
	}
	return out
}
