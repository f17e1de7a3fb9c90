package models

import "time"

// ResultStatus is the publication state of a class result.
type ResultStatus string

const (
	ResultStatusDraft     ResultStatus = "draft"
	ResultStatusPublished ResultStatus = "published"
)

// Valid returns true when the status is a supported value.
func (s ResultStatus) Valid() bool {
	switch s {
	case ResultStatusDraft, ResultStatusPublished:
		return true
	default:
		return false
	}
}

// Result tracks publication per (session, class, center) triple; publishing
// is an upsert keyed on that triple.
type Result struct {
	ID          string       `db:"id" json:"id"`
	SessionID   string       `db:"session_id" json:"session_id"`
	ClassID     string       `db:"class_id" json:"class_id"`
	CenterID    string       `db:"center_id" json:"center_id"`
	Status      ResultStatus `db:"status" json:"status"`
	PublishedAt *time.Time   `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ResultStatusInfo is the lightweight publication check returned for a
// (session, class) pair.
type ResultStatusInfo struct {
	Published   bool       `json:"published"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// StudentResult is the computed aggregate for one student.
type StudentResult struct {
	StudentID     string            `json:"student_id"`
	Marks         []MarkWithSubject `json:"marks"`
	TotalMarks    float64           `json:"total_marks"`
	TotalMaxMarks float64           `json:"total_max_marks"`
	Percentage    float64           `json:"percentage"`
	Grade         string            `json:"grade"`
	Result        string            `json:"result"`
}
