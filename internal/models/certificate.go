package models

// CertificationType enumerates the credentials the university issues.
type CertificationType string

const (
	CertificationDegree     CertificationType = "DEGREE"
	CertificationTranscript CertificationType = "TRANSCRIPT"
	CertificationDiploma    CertificationType = "DIPLOMA"
)

// Valid reports whether the type is one of the known values.
func (t CertificationType) Valid() bool {
	switch t {
	case CertificationDegree, CertificationTranscript, CertificationDiploma:
		return true
	}
	return false
}

// CertificateStatus tracks issuance, verification and revocation.
type CertificateStatus string

const (
	CertificateStatusIssued   CertificateStatus = "ISSUED"
	CertificateStatusVerified CertificateStatus = "VERIFIED"
	CertificateStatusRevoked  CertificateStatus = "REVOKED"
)

// Certificate is an issued credential whose hash anchors public verification.
type Certificate struct {
	CertificateID     string            `json:"certificateId"`
	StudentID         string            `json:"studentId"`
	CertificationType CertificationType `json:"certificationType"`
	IssuedDate        string            `json:"issuedDate"`
	CertificateHash   string            `json:"certificateHash"`
	VerificationCode  string            `json:"verificationCode"`
	QRCode            string            `json:"qrCode"`
	Status            CertificateStatus `json:"status"`
	IssuedBy          string            `json:"issuedBy"`
	VerificationCount int               `json:"verificationCount"`
	LastVerifiedAt    string            `json:"lastVerifiedAt,omitempty" metadata:",optional"`
	RevokedAt         string            `json:"revokedAt,omitempty" metadata:",optional"`
	RevocationReason  string            `json:"revocationReason,omitempty" metadata:",optional"`
	CreatedAt         string            `json:"createdAt"`
}

// VerificationStatus is the outcome of a public verification request.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationInvalid  VerificationStatus = "INVALID"
)

// VerificationRequest records an external party asking whether a
// certificate hash is genuine.
type VerificationRequest struct {
	RequestID       string             `json:"requestId"`
	CertificateID   string             `json:"certificateId" validate:"required"`
	CertificateHash string             `json:"certificateHash" validate:"required"`
	RequestedBy     string             `json:"requestedBy"`
	RequestedAt     string             `json:"requestedAt"`
	Status          VerificationStatus `json:"status"`
}

// PublicCertificate is the subset of a certificate exposed through the
// verification URL.
type PublicCertificate struct {
	CertificateID     string            `json:"certificateId"`
	StudentID         string            `json:"studentId"`
	CertificationType CertificationType `json:"certificationType"`
	IssuedDate        string            `json:"issuedDate"`
	IssuedBy          string            `json:"issuedBy"`
	Status            CertificateStatus `json:"status"`
	CertificateHash   string            `json:"certificateHash"`
}

// Public strips internal fields from the certificate.
func (c *Certificate) Public() PublicCertificate {
	return PublicCertificate{
		CertificateID:     c.CertificateID,
		StudentID:         c.StudentID,
		CertificationType: c.CertificationType,
		IssuedDate:        c.IssuedDate,
		IssuedBy:          c.IssuedBy,
		Status:            c.Status,
		CertificateHash:   c.CertificateHash,
	}
}
