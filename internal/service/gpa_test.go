package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-ledger/internal/models"
)

func TestComputeSGPA(t *testing.T) {
	tests := []struct {
		name    string
		courses []models.CourseGrade
		want    float64
	}{
		{name: "empty", courses: nil, want: 0},
		{name: "zero credits", courses: []models.CourseGrade{{Credits: 0, GradePoint: 9}}, want: 0},
		{name: "weighted", courses: sampleCourses(), want: 8.57},
		{name: "single", courses: []models.CourseGrade{{Credits: 3, GradePoint: 7.5}}, want: 7.5},
		{name: "rounds up", courses: []models.CourseGrade{{Credits: 1, GradePoint: 9}, {Credits: 2, GradePoint: 8}}, want: 8.33},
		{name: "rounds two thirds", courses: []models.CourseGrade{{Credits: 2, GradePoint: 9}, {Credits: 1, GradePoint: 8}}, want: 8.67},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeSGPA(tc.courses))
		})
	}
}

func TestComputeCGPA(t *testing.T) {
	records := []models.AcademicRecord{
		{Courses: sampleCourses()},
		{Courses: []models.CourseGrade{{Credits: 3, GradePoint: 10}}},
	}
	assert.Equal(t, 9.0, ComputeCGPA(records))
	assert.Equal(t, 0.0, ComputeCGPA(nil))
}

func TestCertificateHashIsDeterministic(t *testing.T) {
	a := CertificateHash("CERT1", "STU001", "2024-07-01T08:00:00Z")
	b := CertificateHash("CERT1", "STU001", "2024-07-01T08:00:00Z")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, CertificateHash("CERT1", "STU001", "2024-07-01T08:00:01Z"))
}

func TestVerificationCode(t *testing.T) {
	hash := CertificateHash("CERT1", "STU001", "2024-07-01T08:00:00Z")
	code := VerificationCode("tx-1", hash)
	assert.Regexp(t, regexp.MustCompile(`^[a-z2-7]{16}$`), code)
	assert.Equal(t, code, VerificationCode("tx-1", hash))
	assert.NotEqual(t, code, VerificationCode("tx-2", hash))
	assert.Equal(t, "https://v.example/verify/abc", VerificationURL("https://v.example/", "abc"))
}
