package models

import "time"

// Timetable is an uploaded schedule document for a class/session.
type Timetable struct {
	ID         string    `db:"id" json:"id"`
	CenterID   string    `db:"center_id" json:"center_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Title      string    `db:"title" json:"title"`
	FilePath   string    `db:"file_path" json:"file_path"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableFilter narrows timetable listings.
type TimetableFilter struct {
	CenterID  string
	ClassID   string
	SessionID string
}
