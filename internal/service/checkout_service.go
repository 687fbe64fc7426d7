package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/faxlab-academy-api/internal/dto"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/repository"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/jobs"
	"github.com/noah-isme/faxlab-academy-api/pkg/middleware/requestid"
)

// Checkout notices and redirects.
const (
	NoticeNoCourseSelected  = "No course selected"
	NoticePaymentSuccessful = "Payment successful!"
	RedirectPaymentSuccess  = "/payment-success"

	// JobTypeCheckoutSettlement tags queue jobs that settle a submitted checkout.
	JobTypeCheckoutSettlement = "checkout.settle"
)

type checkoutSessionStore interface {
	Save(ctx context.Context, session *models.CheckoutSession) error
	SaveIf(ctx context.Context, session *models.CheckoutSession, expected ...models.CheckoutState) error
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
}

type delayedDispatcher interface {
	EnqueueAfter(job jobs.Job, delay time.Duration) error
}

type purchaseRecorder interface {
	RecordPurchase(ctx context.Context, payment *models.Payment, enrollment *models.Enrollment) error
}

// CheckoutConfig drives the simulated checkout.
type CheckoutConfig struct {
	Delay          time.Duration
	RecordPayments bool
	Currency       string
}

// CheckoutService runs the idle → editing → submitting → succeeded checkout.
type CheckoutService struct {
	sessions  checkoutSessionStore
	courses   courseFinder
	queue     delayedDispatcher
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       CheckoutConfig
	now       func() time.Time
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(sessions checkoutSessionStore, courses courseFinder, queue delayedDispatcher, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg CheckoutConfig) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &CheckoutService{
		sessions:  sessions,
		courses:   courses,
		queue:     queue,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start opens a checkout for a paid course.
func (s *CheckoutService) Start(ctx context.Context, session *models.Session, req dto.StartCheckoutRequest) (*models.CheckoutSession, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WithRedirect(appErrors.Validation(err, NoticeNoCourseSelected), RedirectCourses)
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithRedirect(appErrors.Clone(appErrors.ErrNotFound, NoticeNoCourseSelected), RedirectCourses)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Free() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "free courses are enrolled directly")
	}

	now := s.now().UTC()
	checkout := &models.CheckoutSession{
		ID:        uuid.NewString(),
		UserID:    session.UserID,
		Course:    course.Summary(),
		State:     models.CheckoutIdle,
		Form:      models.CheckoutForm{Email: session.Email},
		Currency:  s.cfg.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, checkout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start checkout")
	}
	s.metrics.RecordCheckoutTransition(string(models.CheckoutIdle))
	return checkout, nil
}

// Get returns the caller's checkout along with the next view. A checkout left submitting well past
// its settlement delay has its settlement scheduled again.
func (s *CheckoutService) Get(ctx context.Context, session *models.Session, id string) (*dto.CheckoutView, error) {
	checkout, err := s.load(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if s.stalled(checkout) {
		s.resume(ctx, checkout)
	}
	view := dto.NewCheckoutView(checkout)
	if checkout.State == models.CheckoutSucceeded {
		view.Notice = NoticePaymentSuccessful
		view.Redirect = RedirectPaymentSuccess
	}
	return view, nil
}

// Update applies form edits. Allowed only before submission.
func (s *CheckoutService) Update(ctx context.Context, session *models.Session, id string, patch dto.CheckoutFormPatch) (*models.CheckoutSession, error) {
	checkout, err := s.load(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if checkout.State != models.CheckoutIdle && checkout.State != models.CheckoutEditing {
		return nil, errCheckoutSubmitted()
	}

	previous := checkout.State
	checkout.Form = ApplyCheckoutPatch(checkout.Form, patch)
	checkout.UpdatedAt = s.now().UTC()
	checkout.State = models.CheckoutEditing
	if err := s.transition(ctx, checkout, "failed to update checkout", models.CheckoutIdle, models.CheckoutEditing); err != nil {
		return nil, err
	}
	if previous != models.CheckoutEditing {
		s.metrics.RecordCheckoutTransition(string(models.CheckoutEditing))
	}
	return checkout, nil
}

// Submit moves an edited checkout to submitting and schedules settlement after the fixed delay.
// When scheduling fails the checkout is reopened for editing.
func (s *CheckoutService) Submit(ctx context.Context, session *models.Session, id string) (*models.CheckoutSession, error) {
	checkout, err := s.load(ctx, session, id)
	if err != nil {
		return nil, err
	}
	switch checkout.State {
	case models.CheckoutEditing:
	case models.CheckoutIdle:
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment details are required")
	default:
		if s.stalled(checkout) {
			s.resume(ctx, checkout)
			return checkout, nil
		}
		return nil, errCheckoutSubmitted()
	}
	if missing := missingCheckoutFields(checkout.Form); len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	now := s.now().UTC()
	checkout.State = models.CheckoutSubmitting
	checkout.SubmittedAt = &now
	checkout.UpdatedAt = now
	if err := s.transition(ctx, checkout, "failed to submit checkout", models.CheckoutEditing); err != nil {
		return nil, err
	}
	if err := s.schedule(ctx, checkout, s.cfg.Delay); err != nil {
		checkout.State = models.CheckoutEditing
		checkout.SubmittedAt = nil
		checkout.UpdatedAt = s.now().UTC()
		if reopenErr := s.sessions.SaveIf(ctx, checkout, models.CheckoutSubmitting); reopenErr != nil {
			s.logger.Error("failed to reopen checkout", zap.String("checkout_id", checkout.ID), zap.Error(reopenErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule payment")
	}
	s.metrics.RecordCheckoutTransition(string(models.CheckoutSubmitting))
	s.logger.Info("checkout submitted", zap.String("checkout_id", checkout.ID), zap.String("course_id", checkout.Course.ID))
	return checkout, nil
}

func (s *CheckoutService) schedule(ctx context.Context, checkout *models.CheckoutSession, delay time.Duration) error {
	job := jobs.Job{ID: checkout.ID, Type: JobTypeCheckoutSettlement, Payload: requestid.FromContext(ctx)}
	return s.queue.EnqueueAfter(job, delay)
}

// stalled reports a submitting checkout untouched for twice the settlement delay. Scheduled
// settlements live in process memory and do not survive a restart.
func (s *CheckoutService) stalled(checkout *models.CheckoutSession) bool {
	if checkout.State != models.CheckoutSubmitting {
		return false
	}
	return s.now().After(checkout.UpdatedAt.Add(2 * s.cfg.Delay))
}

// resume schedules an immediate settlement. UpdatedAt is bumped first so concurrent readers
// do not schedule it again.
func (s *CheckoutService) resume(ctx context.Context, checkout *models.CheckoutSession) {
	checkout.UpdatedAt = s.now().UTC()
	if err := s.sessions.SaveIf(ctx, checkout, models.CheckoutSubmitting); err != nil {
		s.logger.Warn("checkout resume skipped", zap.String("checkout_id", checkout.ID), zap.Error(err))
		return
	}
	if err := s.schedule(ctx, checkout, 0); err != nil {
		s.logger.Warn("checkout resume failed", zap.String("checkout_id", checkout.ID), zap.Error(err))
		return
	}
	s.logger.Info("checkout settlement resumed", zap.String("checkout_id", checkout.ID))
}

// transition stores checkout only if nobody moved it out of the from states since it was loaded.
func (s *CheckoutService) transition(ctx context.Context, checkout *models.CheckoutSession, failure string, from ...models.CheckoutState) error {
	err := s.sessions.SaveIf(ctx, checkout, from...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCheckoutStateChanged):
		return errCheckoutSubmitted()
	case errors.Is(err, repository.ErrCheckoutSessionNotFound):
		return errCheckoutNotFound()
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failure)
	}
}

func (s *CheckoutService) load(ctx context.Context, session *models.Session, id string) (*models.CheckoutSession, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	checkout, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCheckoutSessionNotFound) {
			return nil, errCheckoutNotFound()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checkout")
	}
	if checkout.UserID != session.UserID {
		return nil, errCheckoutNotFound()
	}
	return checkout, nil
}

func errCheckoutNotFound() *appErrors.Error {
	return appErrors.WithRedirect(appErrors.Clone(appErrors.ErrNotFound, NoticeNoCourseSelected), RedirectCourses)
}

func errCheckoutSubmitted() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrConflict, "checkout already submitted")
}

// CheckoutSettlementWorker completes submitted checkouts from the job queue.
type CheckoutSettlementWorker struct {
	sessions  checkoutSessionStore
	purchases purchaseRecorder
	dashboard learnerCacheInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       CheckoutConfig
	now       func() time.Time
}

// NewCheckoutSettlementWorker constructs the worker. purchases may be nil when payments are not recorded.
func NewCheckoutSettlementWorker(sessions checkoutSessionStore, purchases purchaseRecorder, dashboard learnerCacheInvalidator, metrics *MetricsService, logger *zap.Logger, cfg CheckoutConfig) *CheckoutSettlementWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &CheckoutSettlementWorker{sessions: sessions, purchases: purchases, dashboard: dashboard, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// Handle settles one checkout. Settlement always succeeds; re-delivered jobs are no-ops.
func (w *CheckoutSettlementWorker) Handle(ctx context.Context, job jobs.Job) error {
	checkout, err := w.sessions.Get(ctx, job.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCheckoutSessionNotFound) {
			w.logger.Warn("checkout expired before settlement", zap.String("checkout_id", job.ID))
			return nil
		}
		return err
	}
	if checkout.State != models.CheckoutSubmitting {
		return nil
	}

	if w.cfg.RecordPayments && w.purchases != nil && checkout.PaymentID == "" {
		payment := &models.Payment{
			UserID:    checkout.UserID,
			CourseID:  checkout.Course.ID,
			Amount:    checkout.Course.Price,
			Currency:  checkout.Currency,
			Status:    models.PaymentStatusSimulated,
			Reference: "sim_" + uuid.NewString(),
		}
		enrollment := &models.Enrollment{UserID: checkout.UserID, CourseID: checkout.Course.ID}
		if err := w.purchases.RecordPurchase(ctx, payment, enrollment); err != nil && !errors.Is(err, repository.ErrEnrollmentExists) {
			return err
		}
		checkout.PaymentID = payment.ID
		if w.dashboard != nil {
			w.dashboard.InvalidateLearner(ctx, checkout.UserID)
		}
	}

	now := w.now().UTC()
	checkout.State = models.CheckoutSucceeded
	checkout.SettledAt = &now
	checkout.UpdatedAt = now
	if err := w.sessions.SaveIf(ctx, checkout, models.CheckoutSubmitting); err != nil {
		if errors.Is(err, repository.ErrCheckoutStateChanged) || errors.Is(err, repository.ErrCheckoutSessionNotFound) {
			return nil
		}
		return err
	}
	w.metrics.RecordCheckoutTransition(string(models.CheckoutSucceeded))
	if checkout.SubmittedAt != nil {
		w.metrics.ObserveCheckoutSettlement(now.Sub(*checkout.SubmittedAt))
	}
	reqID, _ := job.Payload.(string)
	w.logger.Info("checkout settled",
		zap.String("checkout_id", checkout.ID),
		zap.Bool("payment_recorded", checkout.PaymentID != ""),
		zap.String("request_id", reqID),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}
