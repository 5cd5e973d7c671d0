// Package model defines domain entities shared by the dashboard services.
package model

import "time"

// Role is the closed set of dashboard actor roles as the API spells them.
type Role string

const (
	RoleFieldWorker Role = "fieldworker"
	RoleManager     Role = "manager"
	RoleSuperAdmin  Role = "superadmin"
	RoleSchoolAdmin Role = "schooladmin"
)

// Session is the authenticated actor: profile plus the bearer credential
// issued at login. Expiry is absolute and fixed at creation; it is never
// extended by activity, only by a fresh login.
type Session struct {
	UserID      int64     `json:"id"`
	Phone       string    `json:"phone"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	School      string    `json:"school,omitempty"`
	District    string    `json:"district,omitempty"`
	AccessToken string    `json:"access_token"`
	LoginTime   time.Time `json:"login_time"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the session is still usable at now. Expiry is the
// only criterion; school-admin sessions legitimately carry no bearer.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.Before(s.ExpiresAt)
}

// ExportToken is the short-lived elevated credential obtained after OTP
// re-verification. It is distinct from the session credential and only
// authorizes unmasked data fetches.
type ExportToken struct {
	Value    string    `json:"access_token"`
	IssuedAt time.Time `json:"issued_at"`
}

// Valid reports whether the token exists and is within its lifetime at now.
// The cutoff is checked at time of use, not at issuance.
func (t *ExportToken) Valid(lifetime time.Duration, now time.Time) bool {
	return t != nil && t.Value != "" && !Expired(t.IssuedAt, lifetime, now)
}

// RequestStatus is the lifecycle state of an export request.
// Transitions are one-directional and terminal: pending -> approved|rejected.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Resolved reports whether the status is terminal.
func (s RequestStatus) Resolved() bool {
	return s == StatusApproved || s == StatusRejected
}

// ExportRequest is a field worker's ask to export data. The record is owned
// by the API; the client never deletes it and never mutates it optimistically.
type ExportRequest struct {
	ID             int64         `json:"id"`
	RequesterID    int64         `json:"requester_id"`
	RequesterName  string        `json:"requester_name"`
	RequesterPhone string        `json:"requester_phone"`
	DataType       string        `json:"data_type"`
	RecordCount    int           `json:"record_count"`
	Reason         string        `json:"reason"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	ApprovedBy     string        `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
}

// AttendanceRecord is one lesson-attendance report as served by the API.
// Teacher/school/district may be absent on masked responses and are filled
// in client-side by joining against user records on phone.
type AttendanceRecord struct {
	ID              int64  `json:"id"`
	Phone           string `json:"phone"`
	StudentsPresent int    `json:"students_present"`
	StudentsAbsent  int    `json:"students_absent"`
	AbsenceReason   string `json:"absence_reason"`
	TopicCovered    string `json:"topic_covered"`
	TeacherName     string `json:"teacher_name,omitempty"`
	School          string `json:"school,omitempty"`
	District        string `json:"district,omitempty"`
}

// UserRecord is one registered program participant.
type UserRecord struct {
	ID       int64  `json:"id"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	School   string `json:"school"`
	District string `json:"district"`
	Language string `json:"language"`
}

// DashboardStats aggregates attendance and registration data for display.
type DashboardStats struct {
	TotalPresent   int
	TotalAbsent    int
	AttendanceRate float64
	TotalSchools   int
	TotalDistricts int
	TotalTeachers  int
}
