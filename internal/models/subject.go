package models

import "time"

// Subject belongs to a class within a center. pass_marks never exceeds
// max_marks.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	ClassID   string    `db:"class_id" json:"class_id"`
	MaxMarks  float64   `db:"max_marks" json:"max_marks"`
	PassMarks float64   `db:"pass_marks" json:"pass_marks"`
	CenterID  string    `db:"center_id" json:"center_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter narrows subject listings.
type SubjectFilter struct {
	ClassID string
}
