package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/repository"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/jobs"
)

type fakeCourses struct {
	courses []models.Course
	err     error
	listed  int
}

func (f *fakeCourses) List(context.Context) ([]models.Course, error) {
	f.listed++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Course(nil), f.courses...), nil
}

func (f *fakeCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.courses {
		if c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

// fakeEnrollments enforces one row per (user, course) like the table's unique constraint.
type fakeEnrollments struct {
	mu        sync.Mutex
	rows      []models.Enrollment
	findErr   error
	createErr error
	listErr   error
	details   []models.EnrollmentDetail
}

func (f *fakeEnrollments) FindByUserAndCourse(_ context.Context, userID, courseID string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, e := range f.rows {
		if e.UserID == userID && e.CourseID == courseID {
			found := e
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollments) Create(_ context.Context, e *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.rows {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return repository.ErrEnrollmentExists
		}
	}
	e.ID = "enr-" + e.CourseID
	e.EnrolledAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeEnrollments) ListByUser(_ context.Context, userID string) ([]models.EnrollmentDetail, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.EnrollmentDetail
	for _, d := range f.details {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeEnrollments) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) InvalidateLearner(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string]interface{}
	getErr  error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return f.getErr
	}
	v, ok := f.entries[key]
	if !ok {
		return errCacheMiss()
	}
	return copyViaJSON(v, dest)
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCacheRepo) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}

func (f *fakeCacheRepo) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

type fakeDispatcher struct {
	mu     sync.Mutex
	jobs   []jobs.Job
	delays []time.Duration
	err    error
}

func (f *fakeDispatcher) EnqueueAfter(job jobs.Job, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	f.delays = append(f.delays, delay)
	return nil
}

type fakePurchases struct {
	mu          sync.Mutex
	payments    []models.Payment
	enrollments *fakeEnrollments
	err         error
}

func (f *fakePurchases) RecordPurchase(ctx context.Context, payment *models.Payment, enrollment *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	payment.ID = "pay-" + payment.CourseID
	f.payments = append(f.payments, *payment)
	if f.enrollments != nil {
		return f.enrollments.Create(ctx, enrollment)
	}
	return nil
}

type fakeProfiles struct {
	profiles  map[string]models.Profile
	updateErr error
}

func (f *fakeProfiles) FindByID(_ context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakeProfiles) UpdateFullName(_ context.Context, id, fullName string, updatedAt time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.FullName = fullName
	p.UpdatedAt = updatedAt
	f.profiles[id] = p
	return nil
}

type fakeAudit struct {
	logs []models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

type fakeCertificates struct {
	certs []models.CertificateDetail
}

func (f *fakeCertificates) ListByUser(_ context.Context, userID string) ([]models.CertificateDetail, error) {
	var out []models.CertificateDetail
	for _, c := range f.certs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCertificates) FindByID(_ context.Context, id string) (*models.CertificateDetail, error) {
	for _, c := range f.certs {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeProgress struct {
	rows []models.VideoProgress
}

func (f *fakeProgress) ListByUser(_ context.Context, userID string) ([]models.VideoProgress, error) {
	var out []models.VideoProgress
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func errCacheMiss() error {
	return appErrors.ErrCacheMiss
}

func copyViaJSON(src, dest interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
