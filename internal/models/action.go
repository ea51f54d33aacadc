package models

// Transaction names exposed by the ledger contract. Audit entries use the
// same names as their action.
const (
	ActionCreateStudent           = "CreateStudent"
	ActionGetStudent              = "GetStudent"
	ActionGetAllStudents          = "GetAllStudents"
	ActionGetStudentsByDepartment = "GetStudentsByDepartment"
	ActionUpdateStudentStatus     = "UpdateStudentStatus"

	ActionCreateAcademicRecord  = "CreateAcademicRecord"
	ActionApproveAcademicRecord = "ApproveAcademicRecord"
	ActionVerifyAcademicRecord  = "VerifyAcademicRecord"
	ActionGetAcademicRecord     = "GetAcademicRecord"
	ActionGetStudentRecords     = "GetStudentRecords"

	ActionIssueCertificate       = "IssueCertificate"
	ActionVerifyCertificate      = "VerifyCertificate"
	ActionRevokeCertificate      = "RevokeCertificate"
	ActionGetCertificate         = "GetCertificate"
	ActionGetCertificateByCode   = "GetCertificateByCode"
	ActionGetStudentCertificates = "GetStudentCertificates"

	ActionGetAuditLog = "GetAuditLog"
)
