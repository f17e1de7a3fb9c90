package models

import "time"

// SchoolClass is a class/grade grouping owned by a center.
type SchoolClass struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CenterID  string    `db:"center_id" json:"center_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
