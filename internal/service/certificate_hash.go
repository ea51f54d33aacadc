package service

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strings"
)

const verificationCodeLength = 16

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// CertificateHash is hex(SHA-256(certificateID ‖ studentID ‖ issuedDate)).
// issuedDate must be the exact string persisted on the certificate.
func CertificateHash(certificateID, studentID, issuedDate string) string {
	sum := sha256.Sum256([]byte(certificateID + studentID + issuedDate))
	return hex.EncodeToString(sum[:])
}

// VerificationCode derives the public lookup code from the issuing
// transaction ID and the certificate hash. Every endorser computes the same
// value, and it cannot be derived from the certificate contents alone.
func VerificationCode(txID, certificateHash string) string {
	sum := sha256.Sum256([]byte(txID + certificateHash))
	return strings.ToLower(codeEncoding.EncodeToString(sum[:]))[:verificationCodeLength]
}

// VerificationURL builds the QR payload for a verification code.
func VerificationURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + code
}
