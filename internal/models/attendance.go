package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// Attendance is a single daily record. center_id, class_id and session_id
// are denormalized copies derived from the referenced student at write time;
// client-supplied values are never trusted for them.
type Attendance struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	SessionID  string           `db:"session_id" json:"session_id"`
	ClassID    string           `db:"class_id" json:"class_id"`
	CenterID   string           `db:"center_id" json:"center_id"`
	Date       time.Time        `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Remarks    *string          `db:"remarks" json:"remarks,omitempty"`
	RecordedBy string           `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter defines query filters. CenterID is set by the tenant
// scoping layer, never from client input for non-admin principals.
type AttendanceFilter struct {
	CenterID  string
	StudentID string
	ClassID   string
	SessionID string
	Date      *time.Time
	Status    *AttendanceStatus
	Page      int
	PageSize  int
}

// AttendanceStatusCount is one GROUP BY status row of a student summary.
type AttendanceStatusCount struct {
	Status AttendanceStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}

// StudentAttendanceSummary aggregates a student's attendance by status.
type StudentAttendanceSummary struct {
	StudentID string                  `json:"student_id"`
	Summary   []AttendanceStatusCount `json:"summary"`
	Total     int                     `json:"total"`
}

// ClassAttendanceRow is one (date, status) count for a class summary,
// ordered by date descending.
type ClassAttendanceRow struct {
	Date   time.Time        `db:"date" json:"date"`
	Status AttendanceStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}
