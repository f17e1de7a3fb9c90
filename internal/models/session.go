package models

import "time"

// SessionStatus is the lifecycle state of an academic session.
type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusUpcoming SessionStatus = "upcoming"
	SessionStatusClosed   SessionStatus = "closed"
)

// Valid returns true when the status is a supported value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusUpcoming, SessionStatusClosed:
		return true
	default:
		return false
	}
}

// Session is an academic period owned by a center. end_date is always
// strictly after start_date.
type Session struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	StartDate time.Time     `db:"start_date" json:"start_date"`
	EndDate   time.Time     `db:"end_date" json:"end_date"`
	Status    SessionStatus `db:"status" json:"status"`
	CenterID  string        `db:"center_id" json:"center_id"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
