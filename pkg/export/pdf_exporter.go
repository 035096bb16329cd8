package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ApprovalCourse is one approved course line in the letter.
type ApprovalCourse struct {
	Name       string
	Code       string
	Credits    int
	University string
	Grade      string
}

// ApprovalLetter carries the data rendered into the credit-transfer
// approval document. GeneratedOn is passed in by the caller so the same
// inputs always render byte-equivalent output.
type ApprovalLetter struct {
	StudentName    string
	RegisterNumber string
	Department     string
	Courses        []ApprovalCourse
	ReviewerID     string
	GeneratedOn    string
}

// PDFExporter renders approval letters into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderApprovalLetter creates the A4 approval document for an approved
// credit-transfer application.
func (e *PDFExporter) RenderApprovalLetter(letter ApprovalLetter) ([]byte, error) {
	if letter.StudentName == "" {
		return nil, fmt.Errorf("pdf requires a student name")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "CREDIT TRANSFER APPLICATION APPROVED", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Student Name: %s", letter.StudentName), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Register Number: %s", letter.RegisterNumber), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Department: %s", letter.Department), "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Approved Courses:", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 9)
	widths := []float64{70, 30, 18, 44, 18}
	headers := []string{"Course", "Code", "Credits", "University", "Grade"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	total := 0
	for _, course := range letter.Courses {
		pdf.CellFormat(widths[0], 7, course.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, course.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", course.Credits), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, course.University, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[4], 7, course.Grade, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		total += course.Credits
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total Credits: %d", total), "", 1, "", false, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Approved By: Faculty %s", letter.ReviewerID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Date: %s", letter.GeneratedOn), "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
