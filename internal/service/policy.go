package service

import (
	"strings"

	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/pkg/config"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

// Policy maps each transaction to the organizations allowed to submit it.
// Actions listed as open accept any caller, with or without a credential.
type Policy struct {
	restricted map[string][]string
	open       map[string]struct{}
}

// NewPolicy builds the authorization table from the configured MSP IDs.
// Empty fields fall back to the defaults.
func NewPolicy(orgs config.OrganizationsConfig) *Policy {
	defaults := config.DefaultOrganizations()
	if orgs.Issuer == "" {
		orgs.Issuer = defaults.Issuer
	}
	if len(orgs.Departments) == 0 {
		orgs.Departments = defaults.Departments
	}
	if len(orgs.Verifiers) == 0 {
		orgs.Verifiers = defaults.Verifiers
	}

	issuer := []string{orgs.Issuer}
	p := &Policy{
		restricted: map[string][]string{
			models.ActionCreateStudent:         issuer,
			models.ActionUpdateStudentStatus:   issuer,
			models.ActionIssueCertificate:      issuer,
			models.ActionRevokeCertificate:     issuer,
			models.ActionApproveAcademicRecord: issuer,
			models.ActionCreateAcademicRecord:  append([]string(nil), orgs.Departments...),
			models.ActionVerifyAcademicRecord:  append([]string(nil), orgs.Verifiers...),
		},
		open: make(map[string]struct{}),
	}
	for _, action := range []string{
		models.ActionGetStudent,
		models.ActionGetAllStudents,
		models.ActionGetStudentsByDepartment,
		models.ActionGetAcademicRecord,
		models.ActionGetStudentRecords,
		models.ActionVerifyCertificate,
		models.ActionGetCertificate,
		models.ActionGetCertificateByCode,
		models.ActionGetStudentCertificates,
		models.ActionGetAuditLog,
	} {
		p.open[action] = struct{}{}
	}
	return p
}

// Authorize returns nil when callerOrg may submit action. Unknown actions
// are always denied.
func (p *Policy) Authorize(action, callerOrg string) error {
	if _, ok := p.open[action]; ok {
		return nil
	}
	required, ok := p.restricted[action]
	if !ok {
		return appErrors.Clonef(appErrors.ErrAuthorization, "action %s is not permitted", action)
	}
	for _, org := range required {
		if callerOrg != "" && callerOrg == org {
			return nil
		}
	}
	caller := callerOrg
	if caller == "" {
		caller = "anonymous caller"
	}
	return appErrors.Clonef(appErrors.ErrAuthorization, "%s requires organization %s, got %s", action, strings.Join(required, " or "), caller)
}
