package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is one labelled line on a certificate.
type Field struct {
	Label string
	Value string
}

// CertificateDocument is the printable form of an issued certificate.
type CertificateDocument struct {
	Institution     string
	Title           string
	Recipient       string
	Fields          []Field
	Hash            string
	VerificationURL string
	// Watermark is printed across the page when set, e.g. REVOKED.
	Watermark string
}

// PDFExporter renders certificates as single-page PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderCertificate lays out the document on a landscape A4 page.
func (e *PDFExporter) RenderCertificate(doc CertificateDocument) ([]byte, error) {
	if doc.Title == "" || doc.Hash == "" {
		return nil, fmt.Errorf("certificate pdf requires a title and hash")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")

	if doc.Institution != "" {
		pdf.SetFont("Times", "B", 22)
		pdf.CellFormat(0, 14, doc.Institution, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Times", "B", 18)
	pdf.CellFormat(0, 12, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if doc.Recipient != "" {
		pdf.SetFont("Times", "I", 13)
		pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")
		pdf.SetFont("Times", "B", 20)
		pdf.CellFormat(0, 12, doc.Recipient, "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "", 11)
	for _, f := range doc.Fields {
		pdf.SetX(60)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 7, f.Label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, f.Value, "", 1, "L", false, 0, "")
	}

	pdf.SetY(pageH - 45)
	pdf.SetFont("Courier", "", 8)
	pdf.CellFormat(0, 5, "SHA-256 "+doc.Hash, "", 1, "C", false, 0, "")
	if doc.VerificationURL != "" {
		pdf.SetFont("Arial", "U", 10)
		pdf.SetTextColor(0, 0, 160)
		pdf.CellFormat(0, 6, doc.VerificationURL, "", 1, "C", false, 0, doc.VerificationURL)
		pdf.SetTextColor(0, 0, 0)
	}

	if doc.Watermark != "" {
		pdf.SetFont("Arial", "B", 72)
		pdf.SetTextColor(200, 30, 30)
		pdf.TransformBegin()
		pdf.TransformRotate(30, pageW/2, pageH/2)
		pdf.Text(pageW/2-60, pageH/2, doc.Watermark)
		pdf.TransformEnd()
		pdf.SetTextColor(0, 0, 0)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
