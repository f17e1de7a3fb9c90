package models

import "time"

// CertificateType categorises issued certificates.
type CertificateType string

const (
	CertificateTypeCompletion    CertificateType = "completion"
	CertificateTypeExcellence    CertificateType = "excellence"
	CertificateTypeParticipation CertificateType = "participation"
)

// Valid returns true when the type is a supported value.
func (t CertificateType) Valid() bool {
	switch t {
	case CertificateTypeCompletion, CertificateTypeExcellence, CertificateTypeParticipation:
		return true
	default:
		return false
	}
}

// Certificate is an issued document. FilePath is empty until the background
// renderer has produced the PDF.
type Certificate struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	CenterID  string          `db:"center_id" json:"center_id"`
	Type      CertificateType `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	FilePath  string          `db:"file_path" json:"file_path"`
	IssuedAt  time.Time       `db:"issued_at" json:"issued_at"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// CertificateFilter narrows certificate listings.
type CertificateFilter struct {
	CenterID  string
	StudentID string
	Type      *CertificateType
}
