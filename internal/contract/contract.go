// Package contract exposes the transaction handlers through the
// (transactionName, []string) invocation surface. Arguments are parsed once
// here so that the handlers themselves stay strongly typed.
package contract

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/internal/service"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

type invokeFunc func(ctx context.Context, args []string) (interface{}, error)

// Function describes one named transaction.
type Function struct {
	Name string
	// Params names the positional arguments.
	Params []string
	// ReadOnly functions never write and may be evaluated without ordering.
	ReadOnly bool
	invoke   invokeFunc
}

// Contract dispatches named transactions to the handlers.
type Contract struct {
	handlers  *service.Handlers
	functions map[string]Function
}

// New registers every transaction exposed by the handlers.
func New(h *service.Handlers) *Contract {
	c := &Contract{handlers: h, functions: make(map[string]Function)}

	c.register(models.ActionCreateStudent, false, []string{"studentId", "name", "email", "department"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Students.CreateStudent(ctx, service.CreateStudentRequest{StudentID: a[0], Name: a[1], Email: a[2], Department: a[3]})
	})
	c.register(models.ActionGetStudent, true, []string{"studentId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Students.GetStudent(ctx, a[0])
	})
	c.register(models.ActionGetAllStudents, true, nil, func(ctx context.Context, _ []string) (interface{}, error) {
		return h.Students.GetAllStudents(ctx)
	})
	c.register(models.ActionGetStudentsByDepartment, true, []string{"department"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Students.GetStudentsByDepartment(ctx, a[0])
	})
	c.register(models.ActionUpdateStudentStatus, false, []string{"studentId", "status"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Students.UpdateStudentStatus(ctx, service.UpdateStudentStatusRequest{StudentID: a[0], Status: a[1]})
	})

	c.register(models.ActionCreateAcademicRecord, false, []string{"recordId", "studentId", "semester", "year", "coursesJSON"}, func(ctx context.Context, a []string) (interface{}, error) {
		semester, err := intArg("semester", a[2])
		if err != nil {
			return nil, err
		}
		year, err := intArg("year", a[3])
		if err != nil {
			return nil, err
		}
		courses, err := service.ParseCourses(a[4])
		if err != nil {
			return nil, err
		}
		return h.Records.CreateAcademicRecord(ctx, service.CreateAcademicRecordRequest{
			RecordID: a[0], StudentID: a[1], Semester: semester, Year: year, Courses: courses,
		})
	})
	c.register(models.ActionApproveAcademicRecord, false, []string{"recordId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Records.ApproveAcademicRecord(ctx, a[0])
	})
	c.register(models.ActionVerifyAcademicRecord, false, []string{"recordId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Records.VerifyAcademicRecord(ctx, a[0])
	})
	c.register(models.ActionGetAcademicRecord, true, []string{"recordId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Records.GetAcademicRecord(ctx, a[0])
	})
	c.register(models.ActionGetStudentRecords, true, []string{"studentId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Records.GetStudentRecords(ctx, a[0])
	})

	c.register(models.ActionIssueCertificate, false, []string{"certificateId", "studentId", "certificationType"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Certificates.IssueCertificate(ctx, service.IssueCertificateRequest{CertificateID: a[0], StudentID: a[1], CertificationType: a[2]})
	})
	// VerifyCertificate writes on success, so it is submitted rather than evaluated.
	c.register(models.ActionVerifyCertificate, false, []string{"certificateId", "certificateHash"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Certificates.VerifyCertificate(ctx, a[0], a[1])
	})
	c.register(models.ActionRevokeCertificate, false, []string{"certificateId", "reason"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Certificates.RevokeCertificate(ctx, service.RevokeCertificateRequest{CertificateID: a[0], Reason: a[1]})
	})
	c.register(models.ActionGetCertificate, true, []string{"certificateId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Certificates.GetCertificate(ctx, a[0])
	})
	c.register(models.ActionGetCertificateByCode, true, []string{"verificationCode"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Certificates.GetCertificateByCode(ctx, a[0])
	})
	c.register(models.ActionGetStudentCertificates, true, []string{"studentId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Certificates.GetStudentCertificates(ctx, a[0])
	})

	c.register(models.ActionGetAuditLog, true, []string{"recordId"}, func(ctx context.Context, a []string) (interface{}, error) {
		return h.Audit.GetAuditLog(ctx, a[0])
	})

	return c
}

func (c *Contract) register(name string, readOnly bool, params []string, fn invokeFunc) {
	c.functions[name] = Function{Name: name, Params: params, ReadOnly: readOnly, invoke: fn}
}

// Lookup returns the function registered under name.
func (c *Contract) Lookup(name string) (Function, bool) {
	fn, ok := c.functions[name]
	return fn, ok
}

// Functions lists the registered transactions in name order.
func (c *Contract) Functions() []Function {
	out := make([]Function, 0, len(c.functions))
	for _, fn := range c.functions {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs the named transaction against the ledger transaction carried by
// ctx and returns the JSON-encoded result.
func (c *Contract) Invoke(ctx context.Context, name string, args []string) ([]byte, error) {
	fn, ok := c.functions[name]
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "transaction %s is not defined", name)
	}
	if len(args) != len(fn.Params) {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "incorrect number of arguments for %s: expecting %d, got %d", name, len(fn.Params), len(args))
	}
	result, err := fn.invoke(ctx, args)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode result")
	}
	return payload, nil
}

func intArg(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, name+" must be an integer")
	}
	return v, nil
}
