package models

import "time"

// Student is enrolled in one class for one session. Roll numbers are unique
// within a (class, session) pair.
type Student struct {
	ID         string     `db:"id" json:"id"`
	CenterID   string     `db:"center_id" json:"center_id"`
	ClassID    string     `db:"class_id" json:"class_id"`
	SessionID  string     `db:"session_id" json:"session_id"`
	Name       string     `db:"name" json:"name"`
	RollNumber string     `db:"roll_number" json:"roll_number"`
	Gender     string     `db:"gender" json:"gender"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Address    string     `db:"address" json:"address"`
	Phone      string     `db:"phone" json:"phone"`
	GuardianName string   `db:"guardian_name" json:"guardian_name"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	CenterID  string
	ClassID   string
	SessionID string
	Search    string
}

// StudentProfile bundles a student with the nested records the profile
// endpoint exposes.
type StudentProfile struct {
	Student      Student       `json:"student"`
	Marks        []Mark        `json:"marks"`
	Payments     []Payment     `json:"payments"`
	Certificates []Certificate `json:"certificates"`
}
