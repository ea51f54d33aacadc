package models

// StudentStatus captures the enrollment lifecycle of a student.
type StudentStatus string

const (
	StudentStatusActive      StudentStatus = "ACTIVE"
	StudentStatusGraduated   StudentStatus = "GRADUATED"
	StudentStatusSuspended   StudentStatus = "SUSPENDED"
	StudentStatusInactive    StudentStatus = "INACTIVE"
	StudentStatusTransferred StudentStatus = "TRANSFERRED"
)

// Valid reports whether the status is one of the known values.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusGraduated, StudentStatusSuspended, StudentStatusInactive, StudentStatusTransferred:
		return true
	}
	return false
}

// Student represents a learner registered by the issuing university.
type Student struct {
	StudentID      string        `json:"studentId"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Department     string        `json:"department"`
	EnrollmentDate string        `json:"enrollmentDate"`
	Status         StudentStatus `json:"status"`
	CreatedBy      string        `json:"createdBy"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt,omitempty" metadata:",optional"`
}
