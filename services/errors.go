package services

import "github.com/sahilchouksey/elearning-api/utils/apperror"

var (
	ErrForbidden = apperror.New(apperror.KindForbidden, "FORBIDDEN", "You do not have permission to perform this action")

	ErrCourseNotFound  = apperror.New(apperror.KindNotFound, "COURSE_NOT_FOUND", "Course not found")
	ErrVideoNotFound   = apperror.New(apperror.KindNotFound, "VIDEO_NOT_FOUND", "Video not found")
	ErrTrainerNotFound = apperror.New(apperror.KindNotFound, "TRAINER_NOT_FOUND", "Trainer not found")
	ErrPaymentNotFound = apperror.New(apperror.KindNotFound, "PAYMENT_NOT_FOUND", "No payment record found")
	ErrUserNotFound    = apperror.New(apperror.KindNotFound, "USER_NOT_FOUND", "User not found")

	ErrCourseInactive     = apperror.New(apperror.KindValidation, "COURSE_INACTIVE", "This course is not available for enrollment")
	ErrCourseHasNoVideos  = apperror.New(apperror.KindValidation, "COURSE_HAS_NO_VIDEOS", "This course has no videos yet")
	ErrNotEnrolled        = apperror.New(apperror.KindForbidden, "NOT_ENROLLED", "You are not enrolled in this course")
	ErrInvalidRating      = apperror.New(apperror.KindValidation, "INVALID_RATING", "Rating must be between 1 and 5")
	ErrInvalidStatus      = apperror.New(apperror.KindValidation, "INVALID_STATUS", "Unknown payment status")
	ErrCategoryNotFound   = apperror.New(apperror.KindValidation, "CATEGORY_NOT_FOUND", "Category does not exist")
	ErrCategoryExists     = apperror.New(apperror.KindConflict, "CATEGORY_EXISTS", "A category with this name already exists")
	ErrInvalidGeography   = apperror.New(apperror.KindValidation, "INVALID_LOCATION", "Selected state or district does not belong to the selected region")
	ErrEmailTaken         = apperror.New(apperror.KindConflict, "EMAIL_TAKEN", "An account with this email already exists")
	ErrUsernameTaken      = apperror.New(apperror.KindConflict, "USERNAME_TAKEN", "This username is already taken")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrWeakPassword       = apperror.New(apperror.KindValidation, "WEAK_PASSWORD", "Password must be at least 8 characters")

	ErrGateway = apperror.New(apperror.KindGateway, "PAYMENT_ERROR", "Payment provider error, please try again later")
)
