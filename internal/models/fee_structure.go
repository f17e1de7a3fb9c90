package models

import "time"

// FeeFrequency is how often a fee recurs.
type FeeFrequency string

const (
	FeeFrequencyMonthly   FeeFrequency = "monthly"
	FeeFrequencyQuarterly FeeFrequency = "quarterly"
	FeeFrequencyYearly    FeeFrequency = "yearly"
	FeeFrequencyOneTime   FeeFrequency = "one_time"
)

// Valid returns true when the frequency is a supported value.
func (f FeeFrequency) Valid() bool {
	switch f {
	case FeeFrequencyMonthly, FeeFrequencyQuarterly, FeeFrequencyYearly, FeeFrequencyOneTime:
		return true
	default:
		return false
	}
}

// FeeStructure defines the fee schedule for a class in a session.
type FeeStructure struct {
	ID        string       `db:"id" json:"id"`
	ClassID   string       `db:"class_id" json:"class_id"`
	SessionID string       `db:"session_id" json:"session_id"`
	CenterID  string       `db:"center_id" json:"center_id"`
	Amount    float64      `db:"amount" json:"amount"`
	Frequency FeeFrequency `db:"frequency" json:"frequency"`
	DueDate   *time.Time   `db:"due_date" json:"due_date,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// FeeStructureFilter narrows fee structure listings.
type FeeStructureFilter struct {
	CenterID  string
	ClassID   string
	SessionID string
}
