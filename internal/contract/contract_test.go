package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/internal/service"
	"github.com/noah-isme/academic-ledger/pkg/config"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

type fixture struct {
	mem      *ledger.Memory
	contract *Contract
	seq      int
}

func newFixture() *fixture {
	h := service.NewHandlers(config.DefaultOrganizations(), "https://verify.nit.edu", nil, nil)
	return &fixture{mem: ledger.NewMemory(), contract: New(h)}
}

func (f *fixture) invoke(org, name string, args ...string) ([]byte, error) {
	f.seq++
	meta := ledger.TxMeta{
		TxID:      fmt.Sprintf("%064d", f.seq),
		Timestamp: time.Date(2024, 5, 1, 0, f.seq, 0, 0, time.UTC),
		Caller:    ledger.StaticIdentity{Org: org, Client: "client"},
	}
	var payload []byte
	err := ledger.Run(context.Background(), f.mem, meta, func(ctx context.Context) error {
		var err error
		payload, err = f.contract.Invoke(ctx, name, args)
		return err
	})
	return payload, err
}

func TestContractEndToEnd(t *testing.T) {
	f := newFixture()

	raw, err := f.invoke("NITWarangalMSP", "CreateStudent", "STU001", "Jane Doe", "jane@x.edu", "CSE")
	require.NoError(t, err)
	var student models.Student
	require.NoError(t, json.Unmarshal(raw, &student))
	assert.Equal(t, models.StudentStatusActive, student.Status)

	_, err = f.invoke("NITWarangalMSP", "CreateStudent", "STU001", "Jane Doe", "jane@x.edu", "CSE")
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))

	raw, err = f.invoke("DepartmentsMSP", "CreateAcademicRecord", "REC1", "STU001", "1", "2024",
		`[{"courseCode":"CS101","credits":4,"gradePoint":9},{"courseCode":"MA101","credits":3,"gradePoint":8}]`)
	require.NoError(t, err)
	var record models.AcademicRecord
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.Equal(t, 8.57, record.SGPA)

	raw, err = f.invoke("NITWarangalMSP", "IssueCertificate", "CERT1", "STU001", "DEGREE")
	require.NoError(t, err)
	var cert models.Certificate
	require.NoError(t, json.Unmarshal(raw, &cert))

	raw, err = f.invoke("", "VerifyCertificate", "CERT1", cert.CertificateHash)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	raw, err = f.invoke("", "VerifyCertificate", "CERT1", "wronghash")
	require.NoError(t, err)
	assert.Equal(t, "false", string(raw))

	raw, err = f.invoke("", "GetCertificate", "CERT1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &cert))
	assert.Equal(t, 1, cert.VerificationCount)

	raw, err = f.invoke("", "GetAuditLog", "CERT1")
	require.NoError(t, err)
	var logs []models.AuditLog
	require.NoError(t, json.Unmarshal(raw, &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, "IssueCertificate", logs[0].Action)
	assert.Equal(t, "VerifyCertificate", logs[1].Action)
}

func TestContractArgumentErrors(t *testing.T) {
	f := newFixture()

	_, err := f.invoke("NITWarangalMSP", "CreateStudent", "STU001")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "expecting 4")

	_, err = f.invoke("NITWarangalMSP", "DropTables")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.invoke("NITWarangalMSP", "CreateStudent", "STU001", "Jane", "jane@x.edu", "CSE")
	require.NoError(t, err)

	_, err = f.invoke("DepartmentsMSP", "CreateAcademicRecord", "REC1", "STU001", "one", "2024", "[]")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.invoke("DepartmentsMSP", "CreateAcademicRecord", "REC1", "STU001", "1", "2024", "{bad")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestContractReadOnlyFlags(t *testing.T) {
	c := New(service.NewHandlers(config.DefaultOrganizations(), "", nil, nil))

	fn, ok := c.Lookup("VerifyCertificate")
	require.True(t, ok)
	assert.False(t, fn.ReadOnly)

	fn, ok = c.Lookup("GetStudentRecords")
	require.True(t, ok)
	assert.True(t, fn.ReadOnly)
	assert.Equal(t, []string{"studentId"}, fn.Params)

	names := make([]string, 0)
	for _, f := range c.Functions() {
		names = append(names, f.Name)
	}
	assert.Len(t, names, 17)
	assert.Equal(t, "ApproveAcademicRecord", names[0])
}
