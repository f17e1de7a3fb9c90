package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields rendered onto a certificate.
type CertificateData struct {
	Title       string
	StudentName string
	CenterName  string
	ClassName   string
	SessionName string
	IssuedAt    time.Time
}

// AdmitCardData carries the fields rendered onto an admit card.
type AdmitCardData struct {
	StudentName string
	RollNumber  string
	ClassName   string
	SessionName string
	CenterName  string
	Subjects    []string
}

// PDFRenderer renders domain documents with gofpdf.
type PDFRenderer struct{}

// NewPDFRenderer constructs a renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Certificate renders a landscape certificate document.
func (r *PDFRenderer) Certificate(data CertificateData) ([]byte, error) {
	if data.StudentName == "" {
		return nil, fmt.Errorf("certificate requires a student name")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Times", "B", 28)
	pdf.CellFormat(0, 18, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "B", 20)
	pdf.CellFormat(0, 12, data.StudentName, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "", 13)
	body := fmt.Sprintf("of %s, class %s, session %s has satisfied the requirements for this award.",
		data.CenterName, data.ClassName, data.SessionName)
	pdf.MultiCell(0, 7, body, "", "C", false)
	pdf.Ln(10)

	pdf.SetFont("Times", "I", 11)
	pdf.CellFormat(0, 6, "Issued on "+data.IssuedAt.Format("02 January 2006"), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// AdmitCard renders a portrait admit card with the subject list.
func (r *PDFRenderer) AdmitCard(data AdmitCardData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(data.CenterName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "ADMIT CARD", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Student", data.StudentName},
		{"Roll number", data.RollNumber},
		{"Class", data.ClassName},
		{"Session", data.SessionName},
	}
	for _, row := range rows {
		pdf.CellFormat(45, 8, row[0], "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 8, row[1], "1", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	if len(data.Subjects) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Subjects", "1", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, subject := range data.Subjects {
			pdf.CellFormat(0, 7, subject, "1", 1, "", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render admit card: %w", err)
	}
	return buf.Bytes(), nil
}
