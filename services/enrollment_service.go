package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services/email"
	"github.com/sahilchouksey/elearning-api/services/gateway"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/metrics"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentOutcome describes how an enrollment or confirmation request ended
type EnrollmentOutcome string

const (
	OutcomeEnrolled         EnrollmentOutcome = "enrolled"
	OutcomeAlreadyEnrolled  EnrollmentOutcome = "already_enrolled"
	OutcomeCheckoutRequired EnrollmentOutcome = "checkout_required"
	OutcomeConfirmed        EnrollmentOutcome = "confirmed"
	OutcomeAlreadyConfirmed EnrollmentOutcome = "already_confirmed"
	OutcomeProcessing       EnrollmentOutcome = "processing"
	OutcomeCancelled        EnrollmentOutcome = "cancelled"
)

// EnrollmentResult is returned by every workflow step
type EnrollmentResult struct {
	Outcome     EnrollmentOutcome `json:"outcome"`
	Message     string            `json:"message"`
	CourseID    uint              `json:"course_id"`
	Payment     *model.Payment    `json:"payment,omitempty"`
	CheckoutURL string            `json:"checkout_url,omitempty"`
}

// EnrollmentConfig holds the settings the workflow needs from the environment
type EnrollmentConfig struct {
	Currency       string
	PublicBaseURL  string
	GatewayTimeout time.Duration
}

// ReconcileSummary reports what a reconciliation pass did
type ReconcileSummary struct {
	Checked   int `json:"checked"`
	Confirmed int `json:"confirmed"`
	Failed    int `json:"failed"`
}

// EnrollmentService turns purchase intents into enrollments
type EnrollmentService struct {
	db      *gorm.DB
	gateway gateway.Gateway
	mailer  email.Mailer
	log     *logger.Logger
	config  EnrollmentConfig
}

// NewEnrollmentService creates a new enrollment service. mailer may be nil.
func NewEnrollmentService(db *gorm.DB, gw gateway.Gateway, mailer email.Mailer, log *logger.Logger, config EnrollmentConfig) *EnrollmentService {
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if config.GatewayTimeout <= 0 {
		config.GatewayTimeout = 10 * time.Second
	}
	return &EnrollmentService{
		db:      db,
		gateway: gw,
		mailer:  mailer,
		log:     log.With("component", "enrollment"),
		config:  config,
	}
}

// InitiateEnrollment enrolls the caller in a free course, or opens a hosted checkout for a paid one
func (s *EnrollmentService) InitiateEnrollment(ctx context.Context, rc auth.RequestContext, courseID uint) (*EnrollmentResult, error) {
	if !rc.Can(auth.CapEnroll) {
		return nil, ErrForbidden
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, ErrCourseInactive
	}

	enrolled, err := s.IsEnrolled(ctx, rc.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		metrics.Enrollments.WithLabelValues(string(OutcomeAlreadyEnrolled)).Inc()
		return alreadyEnrolled(course), nil
	}

	// A course must have content before anyone can enroll
	var videoCount int64
	if err := s.db.WithContext(ctx).Model(&model.Video{}).Where("course_id = ?", course.ID).Count(&videoCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}
	if videoCount == 0 {
		return nil, ErrCourseHasNoVideos
	}

	if course.IsFree() {
		return s.enrollFree(ctx, rc.UserID, course)
	}
	return s.startCheckout(ctx, rc.UserID, course)
}

func (s *EnrollmentService) enrollFree(ctx context.Context, studentID uint, course *model.Course) (*EnrollmentResult, error) {
	var payment *model.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := insertEnrollment(tx, studentID, course.ID)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		ref := fmt.Sprintf("free_%d_%d_%s", studentID, course.ID, uuid.NewString())
		payment = &model.Payment{
			StudentID:        studentID,
			CourseID:         course.ID,
			Amount:           0,
			Currency:         s.config.Currency,
			GatewayPaymentID: &ref,
			Status:           model.PaymentCompleted,
			Metadata:         datatypes.JSONMap{"kind": "free"},
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to record free payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Lost a race with another request for the same pair
	if payment == nil {
		metrics.Enrollments.WithLabelValues(string(OutcomeAlreadyEnrolled)).Inc()
		return alreadyEnrolled(course), nil
	}

	metrics.Enrollments.WithLabelValues(string(OutcomeEnrolled)).Inc()
	s.log.Info("free enrollment", "student_id", studentID, "course_id", course.ID, "payment_id", payment.ID)
	s.notifyEnrolled(ctx, payment, course)

	return &EnrollmentResult{
		Outcome:  OutcomeEnrolled,
		Message:  fmt.Sprintf("You have been enrolled in %s", course.Title),
		CourseID: course.ID,
		Payment:  payment,
	}, nil
}

// checkoutDescriptionMax bounds the course description shown on the hosted checkout page
const checkoutDescriptionMax = 500

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func (s *EnrollmentService) startCheckout(ctx context.Context, studentID uint, course *model.Course) (*EnrollmentResult, error) {
	var student model.User
	if err := s.db.WithContext(ctx).Select("id", "email").First(&student, studentID).Error; err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()

	session, err := s.gateway.CreateCheckoutSession(gctx, gateway.CheckoutRequest{
		Amount:             course.Price,
		Currency:           s.config.Currency,
		ProductName:        course.Title,
		ProductDescription: truncate(course.Description, checkoutDescriptionMax),
		CustomerEmail:      student.Email,
		SuccessURL:         fmt.Sprintf("%s/payment/success?course_id=%d&session_id={CHECKOUT_SESSION_ID}", s.config.PublicBaseURL, course.ID),
		CancelURL:          fmt.Sprintf("%s/payment/cancel?course_id=%d", s.config.PublicBaseURL, course.ID),
		Metadata: map[string]string{
			"course_id":  strconv.FormatUint(uint64(course.ID), 10),
			"student_id": strconv.FormatUint(uint64(studentID), 10),
		},
	})
	if err != nil {
		s.log.Warn("checkout session failed", "student_id", studentID, "course_id", course.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	payment := &model.Payment{
		StudentID:        studentID,
		CourseID:         course.ID,
		Amount:           course.Price,
		Currency:         s.config.Currency,
		GatewaySessionID: &session.ID,
		Status:           model.PaymentPending,
		Metadata:         datatypes.JSONMap{"checkout_url": session.URL},
	}
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record pending payment: %w", err)
	}

	metrics.Enrollments.WithLabelValues(string(OutcomeCheckoutRequired)).Inc()
	s.log.Info("checkout started", "student_id", studentID, "course_id", course.ID, "payment_id", payment.ID)

	return &EnrollmentResult{
		Outcome:     OutcomeCheckoutRequired,
		Message:     "Complete the payment to finish enrolling",
		CourseID:    course.ID,
		Payment:     payment,
		CheckoutURL: session.URL,
	}, nil
}

// ConfirmPayment checks the gateway for the caller's latest pending payment and enrolls on success.
// Safe to call repeatedly.
func (s *EnrollmentService) ConfirmPayment(ctx context.Context, rc auth.RequestContext, courseID uint, sessionRef string) (*EnrollmentResult, error) {
	if !rc.Can(auth.CapEnroll) {
		return nil, ErrForbidden
	}

	var payment model.Payment
	query := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status = ?", rc.UserID, courseID, model.PaymentPending)
	if sessionRef != "" {
		query = query.Where("gateway_session_id = ?", sessionRef)
	}
	err := query.Order("created_at DESC").Order("id DESC").First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.replayedConfirmation(ctx, rc.UserID, courseID, sessionRef)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.GatewaySessionID == nil {
		return nil, ErrPaymentNotFound
	}

	status, err := s.retrieveSession(ctx, *payment.GatewaySessionID)
	if err != nil {
		s.log.Warn("payment verification failed", "payment_id", payment.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if !status.Paid() {
		metrics.PaymentConfirmations.WithLabelValues(string(OutcomeProcessing)).Inc()
		return &EnrollmentResult{
			Outcome:  OutcomeProcessing,
			Message:  "Your payment is still processing, please check again shortly",
			CourseID: courseID,
			Payment:  &payment,
		}, nil
	}

	return s.completePayment(ctx, &payment, status.PaymentIntentID)
}

// replayedConfirmation handles a confirmation whose pending row was already completed
func (s *EnrollmentService) replayedConfirmation(ctx context.Context, studentID, courseID uint, sessionRef string) (*EnrollmentResult, error) {
	if sessionRef == "" {
		return nil, ErrPaymentNotFound
	}

	var payment model.Payment
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND gateway_session_id = ? AND status = ?",
			studentID, courseID, sessionRef, model.PaymentCompleted).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if _, err := insertEnrollment(s.db.WithContext(ctx), studentID, courseID); err != nil {
		return nil, err
	}

	metrics.PaymentConfirmations.WithLabelValues(string(OutcomeAlreadyConfirmed)).Inc()
	return &EnrollmentResult{
		Outcome:  OutcomeAlreadyConfirmed,
		Message:  "Payment already confirmed, you are enrolled",
		CourseID: courseID,
		Payment:  &payment,
	}, nil
}

// completePayment moves a pending payment to completed and enrolls the student in one transaction
func (s *EnrollmentService) completePayment(ctx context.Context, payment *model.Payment, paymentIntentID string) (*EnrollmentResult, error) {
	transitioned := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": model.PaymentCompleted}
		if paymentIntentID != "" {
			updates["gateway_payment_id"] = paymentIntentID
		}

		// Only one concurrent confirmation can move the row out of pending
		res := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to complete payment: %w", res.Error)
		}
		transitioned = res.RowsAffected > 0

		_, err := insertEnrollment(tx, payment.StudentID, payment.CourseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	payment.Status = model.PaymentCompleted
	if paymentIntentID != "" {
		payment.GatewayPaymentID = &paymentIntentID
	}

	if !transitioned {
		metrics.PaymentConfirmations.WithLabelValues(string(OutcomeAlreadyConfirmed)).Inc()
		return &EnrollmentResult{
			Outcome:  OutcomeAlreadyConfirmed,
			Message:  "Payment already confirmed, you are enrolled",
			CourseID: payment.CourseID,
			Payment:  payment,
		}, nil
	}

	metrics.PaymentConfirmations.WithLabelValues(string(OutcomeConfirmed)).Inc()
	s.log.Info("payment confirmed", "student_id", payment.StudentID, "course_id", payment.CourseID, "payment_id", payment.ID)

	if course, err := s.loadCourse(ctx, payment.CourseID); err == nil {
		s.notifyEnrolled(ctx, payment, course)
	}

	return &EnrollmentResult{
		Outcome:  OutcomeConfirmed,
		Message:  "Payment successful, you are now enrolled",
		CourseID: payment.CourseID,
		Payment:  payment,
	}, nil
}

// CancelPayment acknowledges an abandoned checkout. Nothing is written; the pending row stays as it is.
func (s *EnrollmentService) CancelPayment(ctx context.Context, rc auth.RequestContext, courseID uint) (*EnrollmentResult, error) {
	if !rc.Can(auth.CapEnroll) {
		return nil, ErrForbidden
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return &EnrollmentResult{
		Outcome:  OutcomeCancelled,
		Message:  fmt.Sprintf("Payment for %s was cancelled", course.Title),
		CourseID: course.ID,
	}, nil
}

// ReconcilePending re-checks pending payments older than minAge and completes those the gateway reports paid.
// It never fails or expires payments. Each lookup stamps last_checked_at and the least recently
// checked rows go first, so abandoned checkouts cannot starve newer ones out of the batch.
func (s *EnrollmentService) ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (*ReconcileSummary, error) {
	var pending []model.Payment
	err := s.db.WithContext(ctx).
		Where("status = ? AND gateway_session_id IS NOT NULL AND created_at <= ?", model.PaymentPending, time.Now().Add(-minAge)).
		Order("COALESCE(last_checked_at, created_at) ASC").
		Order("id ASC").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payments: %w", err)
	}

	summary := &ReconcileSummary{}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		payment := &pending[i]
		summary.Checked++

		status, err := s.retrieveSession(ctx, *payment.GatewaySessionID)
		s.markChecked(ctx, payment.ID)
		if err != nil {
			summary.Failed++
			s.log.Warn("reconcile lookup failed", "payment_id", payment.ID, "error", err)
			continue
		}
		if !status.Paid() {
			continue
		}

		result, err := s.completePayment(ctx, payment, status.PaymentIntentID)
		if err != nil {
			summary.Failed++
			s.log.Report("reconcile completion failed", err, "payment_id", payment.ID)
			continue
		}
		if result.Outcome == OutcomeConfirmed {
			summary.Confirmed++
		}
	}

	return summary, nil
}

func (s *EnrollmentService) markChecked(ctx context.Context, paymentID uint) {
	err := s.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", paymentID).
		UpdateColumn("last_checked_at", time.Now()).Error
	if err != nil {
		s.log.Warn("failed to stamp reconcile check", "payment_id", paymentID, "error", err)
	}
}

// UpdatePaymentStatus is the manager override. Completing a payment also enrolls the student.
func (s *EnrollmentService) UpdatePaymentStatus(ctx context.Context, rc auth.RequestContext, paymentID uint, status model.PaymentStatus) (*model.Payment, error) {
	if !rc.Can(auth.CapManagePayments) {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var payment model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if err := tx.Model(&payment).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		payment.Status = status

		if status == model.PaymentCompleted {
			if _, err := insertEnrollment(tx, payment.StudentID, payment.CourseID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment status updated", "payment_id", payment.ID, "status", status, "manager_id", rc.UserID)
	return &payment, nil
}

// IsEnrolled reports whether an enrollment row exists for the pair
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	return isEnrolled(s.db.WithContext(ctx), studentID, courseID)
}

func (s *EnrollmentService) retrieveSession(ctx context.Context, sessionRef string) (*gateway.SessionStatus, error) {
	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	return s.gateway.RetrieveSession(gctx, sessionRef)
}

func (s *EnrollmentService) loadCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	return &course, nil
}

// notifyEnrolled sends the confirmation email. Delivery problems never fail the enrollment.
func (s *EnrollmentService) notifyEnrolled(ctx context.Context, payment *model.Payment, course *model.Course) {
	if s.mailer == nil {
		return
	}

	var student model.User
	if err := s.db.WithContext(ctx).First(&student, payment.StudentID).Error; err != nil {
		s.log.Warn("enrollment email skipped", "student_id", payment.StudentID, "error", err)
		return
	}

	msg := email.EnrollmentConfirmation(
		mail.Address{Name: student.DisplayName(), Address: student.Email},
		course.Title,
		payment.Amount,
		payment.Currency,
	)

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		s.log.Warn("enrollment email failed", "student_id", student.ID, "course_id", course.ID, "error", err)
	}
}

func alreadyEnrolled(course *model.Course) *EnrollmentResult {
	return &EnrollmentResult{
		Outcome:  OutcomeAlreadyEnrolled,
		Message:  fmt.Sprintf("You are already enrolled in %s", course.Title),
		CourseID: course.ID,
	}
}

// insertEnrollment creates the (student, course) row unless it exists. It reports whether a row was inserted.
func insertEnrollment(tx *gorm.DB, studentID, courseID uint) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	})
	if res.Error != nil {
		return false, fmt.Errorf("failed to create enrollment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func isEnrolled(db *gorm.DB, studentID, courseID uint) (bool, error) {
	var count int64
	err := db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}
