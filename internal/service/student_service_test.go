package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/pkg/config"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

const (
	issuerOrg   = "NITWarangalMSP"
	deptOrg     = "DepartmentsMSP"
	verifierOrg = "VerifiersMSP"
)

// harness runs handlers in committed memory-ledger transactions with a
// deterministic clock and transaction IDs.
type harness struct {
	t     *testing.T
	mem   *ledger.Memory
	h     *Handlers
	seq   int
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:     t,
		mem:   ledger.NewMemory(),
		h:     NewHandlers(config.DefaultOrganizations(), "https://verify.example.edu", nil, zap.NewNop()),
		clock: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (h *harness) run(org string, fn func(ctx context.Context) error) error {
	h.seq++
	meta := ledger.TxMeta{
		TxID:      fmt.Sprintf("tx%06d", h.seq),
		Timestamp: h.clock.Add(time.Duration(h.seq) * time.Minute),
		Caller:    ledger.StaticIdentity{Org: org, Client: "user@" + org},
	}
	return ledger.Run(context.Background(), h.mem, meta, fn)
}

func (h *harness) createStudent(id, department string) *models.Student {
	var student *models.Student
	err := h.run(issuerOrg, func(ctx context.Context) error {
		var err error
		student, err = h.h.Students.CreateStudent(ctx, CreateStudentRequest{StudentID: id, Name: "Jane Doe", Email: "jane@x.edu", Department: department})
		return err
	})
	require.NoError(h.t, err)
	return student
}

func (h *harness) auditLog(recordID string) []models.AuditLog {
	var logs []models.AuditLog
	err := h.run("", func(ctx context.Context) error {
		var err error
		logs, err = h.h.Audit.GetAuditLog(ctx, recordID)
		return err
	})
	require.NoError(h.t, err)
	return logs
}

func requireCode(t *testing.T, err error, target *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, target), "expected %s, got %v", target.Code, err)
}

func TestStudentServiceCreate(t *testing.T) {
	h := newHarness(t)
	student := h.createStudent("STU001", "CSE")
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Equal(t, issuerOrg, student.CreatedBy)
	assert.Equal(t, "2024-07-01T08:01:00Z", student.CreatedAt)

	var fetched *models.Student
	require.NoError(t, h.run(verifierOrg, func(ctx context.Context) error {
		var err error
		fetched, err = h.h.Students.GetStudent(ctx, "STU001")
		return err
	}))
	assert.Equal(t, models.StudentStatusActive, fetched.Status)
	assert.Equal(t, issuerOrg, fetched.CreatedBy)

	logs := h.auditLog("STU001")
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionCreateStudent, logs[0].Action)
	assert.Equal(t, models.AuditRecordStudent, logs[0].RecordType)
	assert.Equal(t, "user@"+issuerOrg, logs[0].User)
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")

	err := h.run(issuerOrg, func(ctx context.Context) error {
		_, err := h.h.Students.CreateStudent(ctx, CreateStudentRequest{StudentID: "STU001", Name: "Someone Else", Email: "other@x.edu", Department: "ECE"})
		return err
	})
	requireCode(t, err, appErrors.ErrDuplicate)

	require.NoError(t, h.run("", func(ctx context.Context) error {
		student, err := h.h.Students.GetStudent(ctx, "STU001")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", student.Name)
		assert.Equal(t, "CSE", student.Department)
		return nil
	}))
	assert.Len(t, h.auditLog("STU001"), 1)
}

func TestStudentServiceCreateRequiresIssuer(t *testing.T) {
	h := newHarness(t)
	for _, org := range []string{deptOrg, verifierOrg, ""} {
		err := h.run(org, func(ctx context.Context) error {
			_, err := h.h.Students.CreateStudent(ctx, CreateStudentRequest{StudentID: "STU9", Name: "A", Email: "a@x.edu", Department: "CSE"})
			return err
		})
		requireCode(t, err, appErrors.ErrAuthorization)
		assert.Contains(t, err.Error(), issuerOrg)
	}
	assert.Equal(t, 0, h.mem.Len())
}

func TestStudentServiceCreateValidation(t *testing.T) {
	h := newHarness(t)
	err := h.run(issuerOrg, func(ctx context.Context) error {
		_, err := h.h.Students.CreateStudent(ctx, CreateStudentRequest{StudentID: "STU1", Name: "A", Email: "not-an-email", Department: "CSE"})
		return err
	})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestStudentServiceGetMissing(t *testing.T) {
	h := newHarness(t)
	err := h.run("", func(ctx context.Context) error {
		_, err := h.h.Students.GetStudent(ctx, "nobody")
		return err
	})
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceUpdateStatus(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU001", "CSE")

	err := h.run(issuerOrg, func(ctx context.Context) error {
		_, err := h.h.Students.UpdateStudentStatus(ctx, UpdateStudentStatusRequest{StudentID: "STU001", Status: "ON_HOLIDAY"})
		return err
	})
	requireCode(t, err, appErrors.ErrValidation)

	err = h.run(issuerOrg, func(ctx context.Context) error {
		_, err := h.h.Students.UpdateStudentStatus(ctx, UpdateStudentStatusRequest{StudentID: "ghost", Status: "GRADUATED"})
		return err
	})
	requireCode(t, err, appErrors.ErrNotFound)

	err = h.run(deptOrg, func(ctx context.Context) error {
		_, err := h.h.Students.UpdateStudentStatus(ctx, UpdateStudentStatusRequest{StudentID: "STU001", Status: "GRADUATED"})
		return err
	})
	requireCode(t, err, appErrors.ErrAuthorization)

	var updated *models.Student
	require.NoError(t, h.run(issuerOrg, func(ctx context.Context) error {
		var err error
		updated, err = h.h.Students.UpdateStudentStatus(ctx, UpdateStudentStatusRequest{StudentID: "STU001", Status: "GRADUATED"})
		return err
	}))
	assert.Equal(t, models.StudentStatusGraduated, updated.Status)
	assert.NotEmpty(t, updated.UpdatedAt)

	logs := h.auditLog("STU001")
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionUpdateStudentStatus, logs[1].Action)
}

func TestStudentServiceListings(t *testing.T) {
	h := newHarness(t)
	h.createStudent("STU002", "ECE")
	h.createStudent("STU001", "CSE")
	h.createStudent("STU003", "CSE")

	require.NoError(t, h.run("", func(ctx context.Context) error {
		all, err := h.h.Students.GetAllStudents(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "STU001", all[0].StudentID)

		cse, err := h.h.Students.GetStudentsByDepartment(ctx, "CSE")
		require.NoError(t, err)
		require.Len(t, cse, 2)
		assert.Equal(t, "STU003", cse[1].StudentID)

		_, err = h.h.Students.GetStudentsByDepartment(ctx, "")
		requireCode(t, err, appErrors.ErrValidation)
		return nil
	}))
}

func TestStudentServiceOutsideTransaction(t *testing.T) {
	h := newHarness(t)
	_, err := h.h.Students.GetStudent(context.Background(), "STU001")
	requireCode(t, err, appErrors.ErrInternal)
}
