package apiclient

import "github.com/hygienequest/dashboard/internal/model"

// SampleData is the bundled degraded-mode dataset. It mirrors the sample
// records shipped with the dashboard so charts stay populated during an
// outage, and is only served when explicitly enabled.
type SampleData struct{}

var _ DataSource = SampleData{}

func (SampleData) Attendances() []model.AttendanceRecord {
	return []model.AttendanceRecord{
		{ID: 1, Phone: "0772207616", StudentsPresent: 30, StudentsAbsent: 2, AbsenceReason: "2 students sick", TopicCovered: "Personal Hygiene", District: "Kisoro"},
		{ID: 2, Phone: "0772207616", StudentsPresent: 18, StudentsAbsent: 21, AbsenceReason: "bad weather, it was raining too much", TopicCovered: "Hand Washing Techniques", District: "Kisoro"},
		{ID: 3, Phone: "0774405405", StudentsPresent: 25, StudentsAbsent: 8, AbsenceReason: "school fees", TopicCovered: "Dental Hygiene", District: "Isingiro"},
		{ID: 4, Phone: "0700677231", StudentsPresent: 40, StudentsAbsent: 12, AbsenceReason: "malaria outbreak", TopicCovered: "Food Safety", District: "Kaliro"},
		{ID: 5, Phone: "0708210793", StudentsPresent: 35, StudentsAbsent: 5, AbsenceReason: "flu symptoms", TopicCovered: "Environmental Hygiene", District: "Ibanda"},
	}
}

func (SampleData) Registrations() []model.UserRecord {
	return []model.UserRecord{
		{ID: 1, Phone: "0772207616", Name: "Katende Brian", School: "St. Mary's Primary", District: "Kisoro", Language: "English"},
		{ID: 2, Phone: "0774405405", Name: "John Doe", School: "Kampala Primary", District: "Isingiro", Language: "English"},
		{ID: 3, Phone: "0700677231", Name: "Charity Atuheire", School: "Mary Secondary School", District: "Kaliro", Language: "English"},
		{ID: 4, Phone: "0708210793", Name: "Sarah Nakato", School: "Luweero Primary", District: "Ibanda", Language: "English"},
	}
}
