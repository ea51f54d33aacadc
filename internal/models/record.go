package models

// RecordStatus is the forward-only lifecycle of an academic record.
type RecordStatus string

const (
	RecordStatusSubmitted RecordStatus = "SUBMITTED"
	RecordStatusApproved  RecordStatus = "APPROVED"
	RecordStatusVerified  RecordStatus = "VERIFIED"
)

// Next returns the only status the record may move to, or "" when terminal.
func (s RecordStatus) Next() RecordStatus {
	switch s {
	case RecordStatusSubmitted:
		return RecordStatusApproved
	case RecordStatusApproved:
		return RecordStatusVerified
	}
	return ""
}

// CourseGrade is a single course result embedded in an academic record.
type CourseGrade struct {
	CourseCode string  `json:"courseCode" validate:"required"`
	CourseName string  `json:"courseName"`
	Credits    float64 `json:"credits" validate:"gte=0,lte=100"`
	Grade      string  `json:"grade"`
	GradePoint float64 `json:"gradePoint" validate:"gte=0,lte=10"`
}

// AcademicRecord captures a student's results for one semester.
type AcademicRecord struct {
	RecordID   string        `json:"recordId"`
	StudentID  string        `json:"studentId"`
	Semester   int           `json:"semester"`
	Year       int           `json:"year"`
	Courses    []CourseGrade `json:"courses"`
	SGPA       float64       `json:"sgpa"`
	CGPA       float64       `json:"cgpa,omitempty" metadata:",optional"`
	Status     RecordStatus  `json:"status"`
	CreatedBy  string        `json:"createdBy"`
	ApprovedBy string        `json:"approvedBy,omitempty" metadata:",optional"`
	VerifiedBy string        `json:"verifiedBy,omitempty" metadata:",optional"`
	CreatedAt  string        `json:"createdAt"`
	ApprovedAt string        `json:"approvedAt,omitempty" metadata:",optional"`
	VerifiedAt string        `json:"verifiedAt,omitempty" metadata:",optional"`
	Remarks    string        `json:"remarks,omitempty" metadata:",optional"`
}
