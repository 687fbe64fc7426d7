//go:build container
// +build container

package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/repository"
	"github.com/noah-isme/faxlab-academy-api/migrations"
	"github.com/noah-isme/faxlab-academy-api/pkg/database"
)

func setupPostgres(t *testing.T, ctx context.Context) *sqlx.DB {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "academy",
			"POSTGRES_PASSWORD": "academy",
			"POSTGRES_DB":       "academy",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(90 * time.Second),
	}
	pg, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := pg.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=academy password=academy dbname=academy sslmode=disable", host, port.Port())
	db, err := database.Open(ctx, dsn, 10, 5)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Up(ctx, db); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedLearnerAndCourse(t *testing.T, ctx context.Context, db *sqlx.DB, price float64) (string, string) {
	t.Helper()

	users := repository.NewUserRepository(db)
	user := &models.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", PasswordHash: "x", Active: true}
	if err := users.CreateWithProfile(ctx, user, &models.Profile{FullName: "Container Learner"}); err != nil {
		t.Fatal(err)
	}

	courseID := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO courses (id, title, price, is_free, modules, category, level) VALUES ($1, 'Intro to ML', $2, $3, 8, 'Machine Learning', 'Beginner')`,
		courseID, price, price == 0)
	if err != nil {
		t.Fatal(err)
	}
	return user.ID, courseID
}

func TestEnrollmentUniquenessUnderConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t, ctx)
	userID, courseID := seedLearnerAndCourse(t, ctx, db, 0)

	enrollments := repository.NewEnrollmentRepository(db)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		duplicate int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := enrollments.Create(ctx, &models.Enrollment{UserID: userID, CourseID: courseID})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				created++
			case repository.ErrEnrollmentExists:
				duplicate++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || duplicate != 7 {
		t.Fatalf("expected 1 insert and 7 duplicates, got %d and %d", created, duplicate)
	}

	list, err := enrollments.ListByUser(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].CourseTitle != "Intro to ML" {
		t.Fatalf("unexpected enrollments: %+v", list)
	}

	course, err := repository.NewCourseRepository(db).FindByID(ctx, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if course.Enrollments != 1 {
		t.Fatalf("expected popularity to count 1 enrollment, got %d", course.Enrollments)
	}
}

func TestRecordPurchaseKeepsSingleEnrollment(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t, ctx)
	userID, courseID := seedLearnerAndCourse(t, ctx, db, 1999)

	payments := repository.NewPaymentRepository(db)
	first := &models.Payment{UserID: userID, CourseID: courseID, Amount: 1999, Currency: "INR", Status: models.PaymentStatusSimulated, Reference: "sim-1"}
	if err := payments.RecordPurchase(ctx, first, &models.Enrollment{UserID: userID, CourseID: courseID}); err != nil {
		t.Fatal(err)
	}

	second := &models.Payment{UserID: userID, CourseID: courseID, Amount: 1999, Currency: "INR", Status: models.PaymentStatusSimulated, Reference: "sim-2"}
	if err := payments.RecordPurchase(ctx, second, &models.Enrollment{UserID: userID, CourseID: courseID}); err != repository.ErrEnrollmentExists {
		t.Fatalf("expected ErrEnrollmentExists, got %v", err)
	}

	count, err := payments.CountByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected both payments kept, got %d", count)
	}

	enrollment, err := repository.NewEnrollmentRepository(db).FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if enrollment.PaymentID == nil || *enrollment.PaymentID != first.ID {
		t.Fatalf("enrollment should reference the first payment, got %+v", enrollment.PaymentID)
	}

	course, err := repository.NewCourseRepository(db).FindByID(ctx, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if course.Enrollments != 1 {
		t.Fatalf("expected paid course popularity to count 1, got %d", course.Enrollments)
	}
}
