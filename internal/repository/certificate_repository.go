package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/academic-ledger/internal/models"
)

// CertificateRepository manages issued certificates in the world state.
type CertificateRepository struct{}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository() *CertificateRepository {
	return &CertificateRepository{}
}

func certificateKey(id string) string {
	return certificatePrefix + id
}

// Exists reports whether the certificate ID is taken.
func (r *CertificateRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, certificateKey(id))
}

// FindByID returns the certificate or ErrNotFound.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := getJSON(ctx, certificateKey(id), &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// FindByCode resolves a verification code to its certificate.
func (r *CertificateRepository) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	ids, err := lookup(ctx, certificatesByCode, code)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, ids[0])
}

// Create writes the certificate with its student and verification code
// index entries.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if err := putJSON(ctx, certificateKey(cert.CertificateID), cert); err != nil {
		return err
	}
	if err := putIndex(ctx, certificatesByStudent, cert.StudentID, cert.CertificateID); err != nil {
		return err
	}
	return putIndex(ctx, certificatesByCode, cert.VerificationCode, cert.CertificateID)
}

// Update overwrites an existing certificate.
func (r *CertificateRepository) Update(ctx context.Context, cert *models.Certificate) error {
	return putJSON(ctx, certificateKey(cert.CertificateID), cert)
}

// ListByStudent returns the student's certificates ordered by ID.
func (r *CertificateRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Certificate, error) {
	ids, err := lookup(ctx, certificatesByStudent, studentID)
	if err != nil {
		return nil, err
	}
	certs := make([]models.Certificate, 0, len(ids))
	for _, id := range ids {
		cert, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		certs = append(certs, *cert)
	}
	return certs, nil
}
