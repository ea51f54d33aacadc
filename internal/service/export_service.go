package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/pkg/export"
)

type csvRenderer interface {
	Render(t export.Table) ([]byte, error)
}

type pdfRenderer interface {
	RenderCertificate(doc export.CertificateDocument) ([]byte, error)
}

// ExportService renders ledger entities into downloadable documents. It
// works on values already read from the ledger and never writes state.
type ExportService struct {
	institution string
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(institution string, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{institution: institution, csv: csv, pdf: pdf, logger: logger}
}

// CertificatePDF renders a printable certificate. Revoked certificates are
// watermarked rather than refused so holders can still see what was revoked.
func (s *ExportService) CertificatePDF(cert *models.Certificate, student *models.Student) ([]byte, error) {
	recipient := cert.StudentID
	if student != nil && student.Name != "" {
		recipient = student.Name
	}
	fields := []export.Field{
		{Label: "Certificate ID", Value: cert.CertificateID},
		{Label: "Student ID", Value: cert.StudentID},
	}
	if student != nil && student.Department != "" {
		fields = append(fields, export.Field{Label: "Department", Value: student.Department})
	}
	fields = append(fields,
		export.Field{Label: "Issued", Value: cert.IssuedDate},
		export.Field{Label: "Issued by", Value: cert.IssuedBy},
		export.Field{Label: "Verification code", Value: cert.VerificationCode},
	)

	doc := export.CertificateDocument{
		Institution:     s.institution,
		Title:           certificateTitle(cert.CertificationType),
		Recipient:       recipient,
		Fields:          fields,
		Hash:            cert.CertificateHash,
		VerificationURL: cert.QRCode,
	}
	if cert.Status == models.CertificateStatusRevoked {
		doc.Watermark = string(models.CertificateStatusRevoked)
		doc.Fields = append(doc.Fields, export.Field{Label: "Revoked", Value: cert.RevokedAt + " " + cert.RevocationReason})
	}

	out, err := s.pdf.RenderCertificate(doc)
	if err != nil {
		return nil, fmt.Errorf("render certificate %s: %w", cert.CertificateID, err)
	}
	s.logger.Debug("certificate rendered", zap.String("certificateId", cert.CertificateID), zap.Int("bytes", len(out)))
	return out, nil
}

var transcriptHeaders = []string{
	"student_id", "record_id", "year", "semester", "status",
	"course_code", "course_name", "credits", "grade", "grade_point", "sgpa", "cgpa",
}

// TranscriptCSV renders one row per course across all records ordered by
// year and semester.
func (s *ExportService) TranscriptCSV(studentID string, records []models.AcademicRecord) ([]byte, error) {
	sorted := append([]models.AcademicRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Semester < sorted[j].Semester
	})

	table := export.Table{Headers: transcriptHeaders}
	for _, r := range sorted {
		for _, c := range r.Courses {
			table.Append(
				studentID, r.RecordID, strconv.Itoa(r.Year), strconv.Itoa(r.Semester), string(r.Status),
				c.CourseCode, c.CourseName, formatFloat(c.Credits), c.Grade, formatFloat(c.GradePoint),
				formatFloat(r.SGPA), formatFloat(r.CGPA),
			)
		}
	}
	return s.csv.Render(table)
}

func certificateTitle(t models.CertificationType) string {
	switch t {
	case models.CertificationDegree:
		return "Degree Certificate"
	case models.CertificationTranscript:
		return "Official Transcript"
	case models.CertificationDiploma:
		return "Diploma"
	}
	return strings.TrimSpace(string(t) + " Certificate")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
