package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/models"
)

// inTx runs fn inside a committed memory-ledger transaction.
func inTx(t *testing.T, mem *ledger.Memory, fn func(ctx context.Context)) {
	t.Helper()
	meta := ledger.TxMeta{TxID: "tx", Timestamp: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	err := ledger.Run(context.Background(), mem, meta, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
	require.NoError(t, err)
}

func TestStudentRepositoryCreateAndFind(t *testing.T) {
	mem := ledger.NewMemory()
	repo := NewStudentRepository(zap.NewNop())

	inTx(t, mem, func(ctx context.Context) {
		require.NoError(t, repo.Create(ctx, &models.Student{StudentID: "STU001", Name: "Jane Doe", Department: "CSE", Status: models.StudentStatusActive}))
	})

	inTx(t, mem, func(ctx context.Context) {
		ok, err := repo.Exists(ctx, "STU001")
		require.NoError(t, err)
		assert.True(t, ok)

		student, err := repo.FindByID(ctx, "STU001")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", student.Name)

		_, err = repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStudentRepositoryListSkipsForeignValues(t *testing.T) {
	mem := ledger.NewMemory()
	repo := NewStudentRepository(nil)

	inTx(t, mem, func(ctx context.Context) {
		require.NoError(t, repo.Create(ctx, &models.Student{StudentID: "B", Department: "ECE"}))
		require.NoError(t, repo.Create(ctx, &models.Student{StudentID: "A", Department: "CSE"}))
		tx, _ := ledger.From(ctx)
		require.NoError(t, tx.PutState("student:corrupt", []byte("not json")))
		require.NoError(t, tx.PutState("record:R1", []byte(`{"recordId":"R1"}`)))
	})

	inTx(t, mem, func(ctx context.Context) {
		students, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "A", students[0].StudentID)
		assert.Equal(t, "B", students[1].StudentID)
	})
}

func TestStudentRepositoryListByDepartment(t *testing.T) {
	mem := ledger.NewMemory()
	repo := NewStudentRepository(nil)

	inTx(t, mem, func(ctx context.Context) {
		require.NoError(t, repo.Create(ctx, &models.Student{StudentID: "S1", Department: "CSE"}))
		require.NoError(t, repo.Create(ctx, &models.Student{StudentID: "S2", Department: "ECE"}))
		require.NoError(t, repo.Create(ctx, &models.Student{StudentID: "S3", Department: "CSE"}))
	})

	inTx(t, mem, func(ctx context.Context) {
		students, err := repo.ListByDepartment(ctx, "CSE")
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "S1", students[0].StudentID)
		assert.Equal(t, "S3", students[1].StudentID)
	})
}

func TestRepositoryRequiresTransaction(t *testing.T) {
	_, err := NewStudentRepository(nil).FindByID(context.Background(), "S1")
	assert.Error(t, err)
}

func TestRecordRepositoryListByStudentSkipsDangling(t *testing.T) {
	mem := ledger.NewMemory()
	repo := NewRecordRepository(nil)

	inTx(t, mem, func(ctx context.Context) {
		require.NoError(t, repo.Create(ctx, &models.AcademicRecord{RecordID: "R2", StudentID: "S1", Semester: 2}))
		require.NoError(t, repo.Create(ctx, &models.AcademicRecord{RecordID: "R1", StudentID: "S1", Semester: 1}))
		tx, _ := ledger.From(ctx)
		require.NoError(t, recordsByStudent.Put(tx, "S1", "R9"))
	})

	inTx(t, mem, func(ctx context.Context) {
		records, err := repo.ListByStudent(ctx, "S1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "R1", records[0].RecordID)
		assert.Equal(t, "R2", records[1].RecordID)
	})
}

func TestCertificateRepositoryIndexes(t *testing.T) {
	mem := ledger.NewMemory()
	repo := NewCertificateRepository()

	inTx(t, mem, func(ctx context.Context) {
		require.NoError(t, repo.Create(ctx, &models.Certificate{CertificateID: "C1", StudentID: "S1", VerificationCode: "code1"}))
		require.NoError(t, repo.Create(ctx, &models.Certificate{CertificateID: "C2", StudentID: "S2", VerificationCode: "code2"}))
	})

	inTx(t, mem, func(ctx context.Context) {
		cert, err := repo.FindByCode(ctx, "code2")
		require.NoError(t, err)
		assert.Equal(t, "C2", cert.CertificateID)

		_, err = repo.FindByCode(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		certs, err := repo.ListByStudent(ctx, "S1")
		require.NoError(t, err)
		require.Len(t, certs, 1)
		assert.Equal(t, "C1", certs[0].CertificateID)
	})
}

func TestAuditRepositoryOrdersByLogID(t *testing.T) {
	mem := ledger.NewMemory()
	repo := NewAuditRepository()

	inTx(t, mem, func(ctx context.Context) {
		require.NoError(t, repo.Append(ctx, &models.AuditLog{LogID: "0002_R1_b", RecordID: "R1", Action: models.ActionApproveAcademicRecord}))
		require.NoError(t, repo.Append(ctx, &models.AuditLog{LogID: "0001_R1_a", RecordID: "R1", Action: models.ActionCreateAcademicRecord}))
		require.NoError(t, repo.Append(ctx, &models.AuditLog{LogID: "0003_R2_c", RecordID: "R2", Action: models.ActionCreateAcademicRecord}))
	})

	inTx(t, mem, func(ctx context.Context) {
		logs, err := repo.ListByRecord(ctx, "R1")
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, models.ActionCreateAcademicRecord, logs[0].Action)
		assert.Equal(t, models.ActionApproveAcademicRecord, logs[1].Action)
	})
}
