package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sahilchouksey/elearning-api/handlers"
	auth_handlers "github.com/sahilchouksey/elearning-api/handlers/auth"
	course_handlers "github.com/sahilchouksey/elearning-api/handlers/course"
	dashboard_handlers "github.com/sahilchouksey/elearning-api/handlers/dashboard"
	manager_handlers "github.com/sahilchouksey/elearning-api/handlers/manager"
	payment_handlers "github.com/sahilchouksey/elearning-api/handlers/payment"
	rating_handlers "github.com/sahilchouksey/elearning-api/handlers/rating"
	trainer_handlers "github.com/sahilchouksey/elearning-api/handlers/trainer"
	video_handlers "github.com/sahilchouksey/elearning-api/handlers/video"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"gorm.io/gorm"
)

// Dependencies carries everything the routes need
type Dependencies struct {
	DB          *gorm.DB
	Health      handlers.HealthChecker
	JWT         *auth.JWTManager
	Policy      *auth.Policy
	Blacklist   *auth.BlacklistService
	BruteForce  *middleware.BruteForceProtection
	Accounts    *services.AccountService
	Catalog     *services.CatalogService
	Enrollments *services.EnrollmentService
	Progress    *services.ProgressService
	Ratings     *services.RatingService
	Reports     *services.ReportService
	Log         *logger.Logger

	AllowedOrigins string
	// RateLimitRequests of 0 disables the limiter
	RateLimitRequests int
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	authMiddleware := middleware.NewAuthMiddleware(deps.JWT, deps.Policy, deps.DB)
	authenticated := authMiddleware.Required()
	can := authMiddleware.RequireCapability

	authHandler := auth_handlers.NewAuthHandler(deps.Accounts, deps.JWT, deps.Blacklist, deps.BruteForce, deps.Log)
	courseHandler := course_handlers.NewCourseHandler(deps.Catalog, deps.Log)
	videoHandler := video_handlers.NewVideoHandler(deps.Catalog, deps.Progress, deps.Log)
	paymentHandler := payment_handlers.NewPaymentHandler(deps.Enrollments, deps.Reports, deps.Log)
	ratingHandler := rating_handlers.NewRatingHandler(deps.Ratings, deps.Log)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(deps.Reports, deps.Log)
	trainerHandler := trainer_handlers.NewTrainerHandler(deps.Reports, deps.Log)
	managerHandler := manager_handlers.NewManagerHandler(deps.Accounts, deps.Reports, deps.Log)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    deps.AllowedOrigins,
		RateLimitRequests: deps.RateLimitRequests,
		RateLimitWindow:   1 * time.Minute,
		Log:               deps.Log,
	})

	// Health check and metrics (public)
	app.Get("/ping", handlers.HandleCheckHealth(deps.Health))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if deps.BruteForce != nil {
		authGroup.Post("/login", deps.BruteForce.CheckLockout(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authenticated, authHandler.Logout)
	authGroup.Post("/change-password", authenticated, authHandler.ChangePassword)

	profile := api.Group("/profile", authenticated)
	profile.Get("/", authHandler.GetProfile)
	profile.Put("/", authHandler.UpdateProfile)

	api.Get("/dashboard", authenticated, dashboardHandler.GetDashboard)

	// Catalog
	api.Get("/categories", authenticated, courseHandler.ListCategories)

	courses := api.Group("/courses", authenticated)
	courses.Get("/", can(auth.CapBrowseCatalog), courseHandler.ListCourses)
	courses.Get("/:id", can(auth.CapBrowseCatalog), courseHandler.GetCourse)
	courses.Post("/:id/videos", videoHandler.AddVideo) // trainer of the course or manager

	// Enrollment and checkout
	courses.Post("/:id/enroll", can(auth.CapEnroll), paymentHandler.Enroll)
	courses.Get("/:id/payment/success", can(auth.CapEnroll), paymentHandler.ConfirmPayment)
	courses.Post("/:id/payment/success", can(auth.CapEnroll), paymentHandler.ConfirmPayment)
	courses.Get("/:id/payment/cancel", can(auth.CapEnroll), paymentHandler.CancelPayment)

	// Watching and feedback
	videos := api.Group("/videos", authenticated)
	videos.Get("/:id", can(auth.CapWatchVideo), videoHandler.WatchVideo)
	videos.Post("/:id/progress", can(auth.CapWatchVideo), videoHandler.RecordProgress)
	videos.Post("/:id/rating", can(auth.CapRate), ratingHandler.RateVideo)

	trainers := api.Group("/trainers", authenticated)
	trainers.Get("/:id", courseHandler.GetTrainer)
	trainers.Get("/:id/ratings", ratingHandler.TrainerRatings)
	trainers.Post("/:id/rating", can(auth.CapRate), ratingHandler.RateTrainer)

	// Trainer area. Group middleware would also match the /trainers prefix, so guards are per route.
	trainer := api.Group("/trainer")
	trainer.Get("/dashboard", authenticated, can(auth.CapTeach), trainerHandler.GetDashboard)
	trainer.Get("/courses/:id/students", authenticated, can(auth.CapTeach), trainerHandler.CourseStudents)

	// Manager area
	manager := api.Group("/manager", authenticated)
	manager.Get("/overview", can(auth.CapViewAnalytics), managerHandler.GetOverview)
	manager.Get("/analytics/progress", can(auth.CapViewAnalytics), managerHandler.GetProgressAnalytics)
	manager.Get("/feedback", can(auth.CapViewAnalytics), managerHandler.GetFeedback)

	manager.Get("/trainers", can(auth.CapManageTrainers), managerHandler.ListTrainers)
	manager.Post("/trainers", can(auth.CapManageTrainers), managerHandler.CreateTrainer)
	manager.Get("/courses/:id/students", can(auth.CapViewAnalytics), trainerHandler.CourseStudents)

	manager.Post("/categories", can(auth.CapManageCatalog), courseHandler.CreateCategory)
	manager.Get("/courses", can(auth.CapManageCatalog), courseHandler.ListManagedCourses)
	manager.Post("/courses", can(auth.CapManageCatalog), courseHandler.CreateCourse)
	manager.Put("/courses/:id", can(auth.CapManageCatalog), courseHandler.UpdateCourse)
	manager.Put("/courses/:id/trainer", can(auth.CapManageCatalog), courseHandler.AssignTrainer)

	manager.Get("/payments", can(auth.CapManagePayments), paymentHandler.ListPayments)
	manager.Put("/payments/:id/status", can(auth.CapManagePayments), paymentHandler.UpdatePaymentStatus)
}
