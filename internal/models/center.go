package models

import "time"

// CenterStatus is the lifecycle state of a center.
type CenterStatus string

const (
	CenterStatusActive    CenterStatus = "active"
	CenterStatusPending   CenterStatus = "pending"
	CenterStatusSuspended CenterStatus = "suspended"
)

// Valid returns true when the status is a supported value.
func (s CenterStatus) Valid() bool {
	switch s {
	case CenterStatusActive, CenterStatusPending, CenterStatusSuspended:
		return true
	default:
		return false
	}
}

// Center is the root tenant boundary. Every tenant-scoped entity carries a
// center_id referencing one of these rows.
type Center struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Code      string       `db:"code" json:"code"`
	Address   string       `db:"address" json:"address"`
	Phone     string       `db:"phone" json:"phone"`
	Email     string       `db:"email" json:"email"`
	Status    CenterStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// CenterFilter narrows center listings.
type CenterFilter struct {
	Status *CenterStatus
	Search string
}
