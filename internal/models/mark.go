package models

import "time"

// Mark records marks obtained by a student for one exam component. Unique on
// (student_id, subject_id, session_id, exam_type, center_id).
type Mark struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	SessionID     string    `db:"session_id" json:"session_id"`
	ExamType      string    `db:"exam_type" json:"exam_type"`
	MarksObtained float64   `db:"marks_obtained" json:"marks_obtained"`
	CenterID      string    `db:"center_id" json:"center_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MarkFilter narrows mark listings.
type MarkFilter struct {
	CenterID  string
	StudentID string
	SubjectID string
	SessionID string
	ExamType  string
}

// MarkWithSubject joins a mark with its subject's max marks for result
// computation. MaxMarks is nil when the subject row is missing.
type MarkWithSubject struct {
	Mark
	SubjectName *string  `db:"subject_name" json:"subject_name,omitempty"`
	MaxMarks    *float64 `db:"max_marks" json:"max_marks,omitempty"`
}
