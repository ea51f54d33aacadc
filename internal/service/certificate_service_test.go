package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

func (h *harness) issue(org, certID, studentID, certType string) (*models.Certificate, error) {
	var cert *models.Certificate
	err := h.run(org, func(ctx context.Context) error {
		var err error
		cert, err = h.h.Certificates.IssueCertificate(ctx, IssueCertificateRequest{CertificateID: certID, StudentID: studentID, CertificationType: certType})
		return err
	})
	return cert, err
}

func (h *harness) verify(org, certID, hash string) bool {
	var ok bool
	err := h.run(org, func(ctx context.Context) error {
		var err error
		ok, err = h.h.Certificates.VerifyCertificate(ctx, certID, hash)
		return err
	})
	require.NoError(h.t, err)
	return ok
}

func (h *harness) certificate(certID string) *models.Certificate {
	var cert *models.Certificate
	require.NoError(h.t, h.run("", func(ctx context.Context) error {
		var err error
		cert, err = h.h.Certificates.GetCertificate(ctx, certID)
		return err
	}))
	return cert
}

func TestCertificateServiceIssue(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")

	cert, err := h.issue(issuerOrg, "CERT1", "STU001", "DEGREE")
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusIssued, cert.Status)
	assert.Equal(t, 0, cert.VerificationCount)
	assert.Equal(t, CertificateHash("CERT1", "STU001", cert.IssuedDate), cert.CertificateHash)
	assert.Len(t, cert.VerificationCode, verificationCodeLength)
	assert.Equal(t, "https://verify.example.edu/verify/"+cert.VerificationCode, cert.QRCode)
	assert.Equal(t, issuerOrg, cert.IssuedBy)

	logs := h.auditLog("CERT1")
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionIssueCertificate, logs[0].Action)
}

func TestCertificateServiceIssueFailures(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")
	_, err := h.issue(issuerOrg, "CERT1", "STU001", "DEGREE")
	require.NoError(t, err)

	_, err = h.issue(issuerOrg, "CERT1", "STU001", "DIPLOMA")
	requireCode(t, err, appErrors.ErrDuplicate)

	_, err = h.issue(issuerOrg, "CERT2", "ghost", "DEGREE")
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = h.issue(issuerOrg, "CERT3", "STU001", "CERTIFICATE_OF_AWESOME")
	requireCode(t, err, appErrors.ErrValidation)

	_, err = h.issue(verifierOrg, "CERT4", "STU001", "DEGREE")
	requireCode(t, err, appErrors.ErrAuthorization)
}

func TestCertificateServiceVerify(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")
	cert, err := h.issue(issuerOrg, "CERT1", "STU001", "DEGREE")
	require.NoError(t, err)
	height := h.mem.Height()

	assert.True(t, h.verify("", "CERT1", cert.CertificateHash))
	verified := h.certificate("CERT1")
	assert.Equal(t, 1, verified.VerificationCount)
	assert.Equal(t, models.CertificateStatusVerified, verified.Status)
	assert.NotEmpty(t, verified.LastVerifiedAt)
	assert.Equal(t, height+1, h.mem.Height())

	assert.False(t, h.verify(verifierOrg, "CERT1", "wronghash"))
	assert.False(t, h.verify(verifierOrg, "CERT1", strings.ToUpper(cert.CertificateHash)))
	assert.False(t, h.verify(verifierOrg, "NOPE", cert.CertificateHash))
	assert.Equal(t, 1, h.certificate("CERT1").VerificationCount)
	assert.Equal(t, height+1, h.mem.Height())

	assert.True(t, h.verify(verifierOrg, "CERT1", cert.CertificateHash))
	assert.Equal(t, 2, h.certificate("CERT1").VerificationCount)

	logs := h.auditLog("CERT1")
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActionVerifyCertificate, logs[1].Action)
	assert.Equal(t, anonymousCaller, logs[1].Organization)
	assert.Equal(t, verifierOrg, logs[2].Organization)
}

func TestCertificateServiceRevoke(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")
	cert, err := h.issue(issuerOrg, "CERT1", "STU001", "TRANSCRIPT")
	require.NoError(t, err)

	revoke := func(org, reason string) error {
		return h.run(org, func(ctx context.Context) error {
			_, err := h.h.Certificates.RevokeCertificate(ctx, RevokeCertificateRequest{CertificateID: "CERT1", Reason: reason})
			return err
		})
	}

	requireCode(t, revoke(deptOrg, "fraud"), appErrors.ErrAuthorization)
	requireCode(t, revoke(issuerOrg, ""), appErrors.ErrValidation)
	require.NoError(t, revoke(issuerOrg, "issued in error"))
	requireCode(t, revoke(issuerOrg, "again"), appErrors.ErrValidation)

	revoked := h.certificate("CERT1")
	assert.Equal(t, models.CertificateStatusRevoked, revoked.Status)
	assert.Equal(t, "issued in error", revoked.RevocationReason)

	assert.False(t, h.verify("", "CERT1", cert.CertificateHash))
	assert.Equal(t, 0, h.certificate("CERT1").VerificationCount)
}

func TestCertificateServiceLookups(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")
	h.createStudent("STU002", "CSE")
	first, err := h.issue(issuerOrg, "CERT1", "STU001", "DEGREE")
	require.NoError(t, err)
	_, err = h.issue(issuerOrg, "CERT2", "STU001", "TRANSCRIPT")
	require.NoError(t, err)
	_, err = h.issue(issuerOrg, "CERT3", "STU002", "DIPLOMA")
	require.NoError(t, err)

	require.NoError(t, h.run("", func(ctx context.Context) error {
		certs, err := h.h.Certificates.GetStudentCertificates(ctx, "STU001")
		require.NoError(t, err)
		require.Len(t, certs, 2)
		assert.Equal(t, "CERT1", certs[0].CertificateID)
		assert.Equal(t, "CERT2", certs[1].CertificateID)

		byCode, err := h.h.Certificates.GetCertificateByCode(ctx, first.VerificationCode)
		require.NoError(t, err)
		assert.Equal(t, "CERT1", byCode.CertificateID)

		_, err = h.h.Certificates.GetCertificateByCode(ctx, "zzzzzzzzzzzzzzzz")
		requireCode(t, err, appErrors.ErrNotFound)

		_, err = h.h.Certificates.GetCertificate(ctx, "CERT9")
		requireCode(t, err, appErrors.ErrNotFound)
		return nil
	}))
}

func TestVerificationCodesDifferPerIssuance(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")
	a, err := h.issue(issuerOrg, "CERT1", "STU001", "DEGREE")
	require.NoError(t, err)
	b, err := h.issue(issuerOrg, "CERT2", "STU001", "DEGREE")
	require.NoError(t, err)
	assert.NotEqual(t, a.VerificationCode, b.VerificationCode)
	assert.NotEqual(t, a.CertificateHash, b.CertificateHash)
}
