package models

import "time"

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Valid returns true when the status is a supported value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is a fee payment by a student.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	Amount        float64       `db:"amount" json:"amount"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	Status        PaymentStatus `db:"status" json:"status"`
	SessionID     string        `db:"session_id" json:"session_id"`
	CenterID      string        `db:"center_id" json:"center_id"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	CenterID  string
	StudentID string
	SessionID string
	Status    *PaymentStatus
}

// StudentPaymentSummary bundles a student's payments with the completed
// total.
type StudentPaymentSummary struct {
	StudentID string    `json:"student_id"`
	Payments  []Payment `json:"payments"`
	TotalPaid float64   `json:"total_paid"`
}
