package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries the fields printed on a course completion certificate.
type CertificateDocument struct {
	CertificateNumber string
	LearnerName       string
	CourseTitle       string
	Instructor        string
	Duration          string
	IssuedAt          time.Time
	Issuer            string
}

// PDFExporter renders certificates and tabular datasets to PDF.
type PDFExporter struct {
	issuer string
}

// NewPDFExporter constructs a PDF exporter. issuer is printed on certificates lacking one.
func NewPDFExporter(issuer string) *PDFExporter {
	if issuer == "" {
		issuer = "FaxLab Academy"
	}
	return &PDFExporter{issuer: issuer}
}

// ContentType reports the media type of rendered output.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// RenderCertificate draws a single landscape certificate page.
func (e *PDFExporter) RenderCertificate(doc CertificateDocument) ([]byte, error) {
	if strings.TrimSpace(doc.LearnerName) == "" || strings.TrimSpace(doc.CourseTitle) == "" {
		return nil, fmt.Errorf("certificate requires learner name and course title")
	}
	if doc.Issuer == "" {
		doc.Issuer = e.issuer
	}
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = time.Now().UTC()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetLineWidth(1.2)
	pdf.SetDrawColor(40, 60, 120)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetY(35)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.CellFormat(0, 14, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, tr(doc.LearnerName), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed", "", 1, "C", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 10, tr(doc.CourseTitle), "", "C", false)

	pdf.SetFont("Helvetica", "", 11)
	details := make([]string, 0, 2)
	if doc.Instructor != "" {
		details = append(details, "Instructor: "+doc.Instructor)
	}
	if doc.Duration != "" {
		details = append(details, "Duration: "+doc.Duration)
	}
	if len(details) > 0 {
		pdf.Ln(2)
		pdf.CellFormat(0, 7, tr(strings.Join(details, "   ")), "", 1, "C", false, 0, "")
	}

	pdf.SetY(165)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(128, 6, "Issued "+doc.IssuedAt.Format("02 January 2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat(129, 6, "Certificate No. "+doc.CertificateNumber, "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, tr(doc.Issuer), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension is the file suffix for downloads.
func (e *PDFExporter) Extension() string {
	return "pdf"
}

// Render lays the dataset out as a landscape table. Column headings use Title.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr(e.issuer), "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	width := 277.0 / float64(len(data.Columns))
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 234, 245)
	for _, col := range data.Columns {
		pdf.CellFormat(width, 8, tr(col.heading()), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range data.Rows {
		for _, cell := range data.record(row) {
			pdf.CellFormat(width, 7, tr(truncate(cell, width)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf table: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate keeps a cell roughly inside its column at 8pt Helvetica.
func truncate(s string, width float64) string {
	limit := int(width / 1.7)
	r := []rune(s)
	if limit < 4 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
