package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/api"
	"github.com/sahilchouksey/elearning-api/database"
	"github.com/sahilchouksey/elearning-api/database/dbtest"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/services/email"
	"github.com/sahilchouksey/elearning-api/services/gateway"
	"github.com/sahilchouksey/elearning-api/services/storage"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "password123"

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testServer struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *gateway.Fake
	blobs   *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	log := logger.NewNop()
	fake := gateway.NewFake()
	blobs := storage.NewMemoryStore()
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        "router-test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "elearning-test",
	})

	app := api.NewAPIServer("", log).GetEngine()
	SetupRoutes(app, Dependencies{
		DB:        db,
		Health:    database.NewGORMStore(db, log),
		JWT:       jwtManager,
		Policy:    auth.MustPolicy(),
		Blacklist: auth.NewBlacklistService(db),
		Accounts:  services.NewAccountService(db, log),
		Catalog:   services.NewCatalogService(db, blobs, log),
		Enrollments: services.NewEnrollmentService(db, fake, email.NewConsoleMailer(log), log, services.EnrollmentConfig{
			Currency:       "usd",
			PublicBaseURL:  "https://app.test",
			GatewayTimeout: time.Second,
		}),
		Progress:       services.NewProgressService(db, blobs, log),
		Ratings:        services.NewRatingService(db),
		Reports:        services.NewReportService(db, nil, log),
		Log:            log,
		AllowedOrigins: "https://app.test",
	})

	return &testServer{app: app, db: db, gateway: fake, blobs: blobs}
}

type apiResponse struct {
	status int
	body   map[string]interface{}
}

func (r apiResponse) data() map[string]interface{} {
	data, _ := r.body["data"].(map[string]interface{})
	return data
}

func (r apiResponse) list() []interface{} {
	list, _ := r.body["data"].([]interface{})
	return list
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) apiResponse {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{status: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (s *testServer) call(t *testing.T, method, path, token string, body interface{}) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

// account creates a user directly and logs in through the API
func (s *testServer) account(t *testing.T, role model.Role, username string) (*model.User, string) {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	user := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
		Name:         username,
		Role:         role,
	}
	require.NoError(t, s.db.Create(user).Error)

	resp := s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.status)
	return user, resp.data()["access_token"].(string)
}

func (s *testServer) uploadVideo(t *testing.T, token string, courseID uint, title string, order int) apiResponse {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("title", title))
	require.NoError(t, form.WriteField("order", fmt.Sprint(order)))
	require.NoError(t, form.WriteField("duration_minutes", "12"))
	part, err := form.CreateFormFile("file", "lesson.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a video"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/videos", courseID), &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return s.send(t, req, token)
}

func id(v interface{}) uint {
	return uint(v.(float64))
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	resp := s.call(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.body["status"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	resp := s.call(t, http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, false, resp.body["success"])

	detail, _ := resp.body["error"].(map[string]interface{})
	require.NotNil(t, detail)
	assert.Equal(t, "NOT_FOUND", detail["code"])
	assert.NotEmpty(t, detail["request_id"])
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	s := newTestServer(t)

	resp := s.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "Ada@Example.com",
		"password": testPassword,
		"name":     "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	user := resp.data()["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, user, "password_hash")

	resp = s.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": testPassword,
		"name":     "Ada Again",
	})
	assert.Equal(t, http.StatusConflict, resp.status)

	resp = s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.status)
	access := resp.data()["access_token"].(string)
	refresh := resp.data()["refresh_token"].(string)

	// Access tokens cannot be used to refresh
	resp = s.call(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": access})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.call(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEmpty(t, resp.data()["access_token"])

	// The used refresh token is revoked
	resp = s.call(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.call(t, http.MethodGet, "/api/v1/profile", access, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Ada Lovelace", resp.data()["name"])

	resp = s.call(t, http.MethodPost, "/api/v1/auth/logout", access, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = s.call(t, http.MethodGet, "/api/v1/profile", access, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestChangePasswordInvalidatesTokens(t *testing.T) {
	s := newTestServer(t)
	_, token := s.account(t, model.RoleStudent, "grace")

	resp := s.call(t, http.MethodPost, "/api/v1/auth/change-password", token, map[string]string{
		"old_password": "not-my-password",
		"new_password": "brand-new-pass1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.call(t, http.MethodPost, "/api/v1/auth/change-password", token, map[string]string{
		"old_password": testPassword,
		"new_password": "brand-new-pass1",
	})
	require.Equal(t, http.StatusOK, resp.status)

	resp = s.call(t, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "grace@example.com",
		"password": "brand-new-pass1",
	})
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/courses", "/api/v1/dashboard", "/api/v1/manager/overview"} {
		resp := s.call(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.status, path)
	}
}

func TestAuthenticatedReadsSucceed(t *testing.T) {
	s := newTestServer(t)
	_, student := s.account(t, model.RoleStudent, "reader")

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/profile", "/api/v1/courses", "/api/v1/categories"} {
		resp := s.call(t, http.MethodGet, path, student, nil)
		assert.Equal(t, http.StatusOK, resp.status, "%s: %v", path, resp.body)
	}
}

func TestCapabilitiesByRole(t *testing.T) {
	s := newTestServer(t)
	_, student := s.account(t, model.RoleStudent, "student")
	_, trainer := s.account(t, model.RoleTrainer, "trainer")
	_, manager := s.account(t, model.RoleManager, "manager")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"student cannot open manager overview", http.MethodGet, "/api/v1/manager/overview", student, http.StatusForbidden},
		{"trainer cannot enroll", http.MethodPost, "/api/v1/courses/1/enroll", trainer, http.StatusForbidden},
		{"manager cannot watch", http.MethodGet, "/api/v1/videos/1", manager, http.StatusForbidden},
		{"student cannot open trainer dashboard", http.MethodGet, "/api/v1/trainer/dashboard", student, http.StatusForbidden},
		{"trainer opens trainer dashboard", http.MethodGet, "/api/v1/trainer/dashboard", trainer, http.StatusOK},
		{"manager lists payments", http.MethodGet, "/api/v1/manager/payments", manager, http.StatusOK},
		{"student cannot list payments", http.MethodGet, "/api/v1/manager/payments", student, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := s.call(t, tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.want, resp.status)
		})
	}
}

func TestFreeCourseJourney(t *testing.T) {
	s := newTestServer(t)
	trainer, trainerToken := s.account(t, model.RoleTrainer, "trainer")
	_, managerToken := s.account(t, model.RoleManager, "manager")
	_, studentToken := s.account(t, model.RoleStudent, "student")

	resp := s.call(t, http.MethodPost, "/api/v1/manager/courses", managerToken, map[string]interface{}{
		"title":      "  Intro to X ",
		"price":      0,
		"trainer_id": trainer.ID,
	})
	require.Equal(t, http.StatusCreated, resp.status)
	courseID := id(resp.data()["id"])
	assert.Equal(t, "Intro to X", resp.data()["title"])

	first := s.uploadVideo(t, trainerToken, courseID, "Getting started", 1)
	require.Equal(t, http.StatusCreated, first.status)
	second := s.uploadVideo(t, trainerToken, courseID, "Going further", 2)
	require.Equal(t, http.StatusCreated, second.status)
	firstID := id(first.data()["id"])

	resp = s.call(t, http.MethodGet, "/api/v1/courses?search=intro", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Len(t, resp.list(), 1)

	resp = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", courseID), studentToken, nil)
	require.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, "enrolled", resp.data()["outcome"])

	resp = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", courseID), studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "already_enrolled", resp.data()["outcome"])

	// Enrolled courses leave the student's catalog
	resp = s.call(t, http.MethodGet, "/api/v1/courses", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, resp.list())

	resp = s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/videos/%d", firstID), studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.data()["playlist"], 2)
	assert.Contains(t, resp.data()["stream_url"], "memory://videos/")

	resp = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/videos/%d/progress", firstID), studentToken, map[string]interface{}{
		"completed":       true,
		"watched_seconds": 600,
	})
	require.Equal(t, http.StatusOK, resp.status)
	courseProgress := resp.data()["course_progress"].(map[string]interface{})
	assert.Equal(t, 50.0, courseProgress["percentage"])
	next := resp.data()["next_video"].(map[string]interface{})
	assert.Equal(t, 2.0, next["order"])

	resp = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/videos/%d/rating", firstID), studentToken, map[string]interface{}{
		"rating":  5,
		"comment": "Clear and <b>short</b>",
	})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Clear and short", resp.data()["comment"])

	resp = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/videos/%d/rating", firstID), studentToken, map[string]interface{}{
		"rating": 6,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)

	resp = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/trainers/%d/rating", trainer.ID), studentToken, map[string]interface{}{
		"rating": 4,
	})
	require.Equal(t, http.StatusOK, resp.status)

	resp = s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/trainers/%d/ratings", trainer.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, 4.0, resp.data()["average_rating"])

	resp = s.call(t, http.MethodGet, "/api/v1/dashboard", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "student", resp.data()["role"])

	resp = s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/trainer/courses/%d/students", courseID), trainerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, 1.0, resp.data()["total_students"])
	assert.Equal(t, 50.0, resp.data()["average_progress"])
}

func TestPaidCourseCheckout(t *testing.T) {
	s := newTestServer(t)
	_, managerToken := s.account(t, model.RoleManager, "manager")
	_, studentToken := s.account(t, model.RoleStudent, "student")

	course := &model.Course{Title: "Advanced Y", Price: 49.99, IsActive: true}
	require.NoError(t, s.db.Create(course).Error)
	require.NoError(t, s.db.Create(&model.Video{CourseID: course.ID, Title: "Part 1", Order: 1}).Error)

	resp := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "checkout_required", resp.data()["outcome"])
	assert.Equal(t, "https://checkout.test/pay/cs_test_1", resp.data()["checkout_url"])

	confirmPath := fmt.Sprintf("/api/v1/courses/%d/payment/success?session_id=cs_test_1", course.ID)

	resp = s.call(t, http.MethodGet, confirmPath, studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "processing", resp.data()["outcome"])

	s.gateway.MarkPaid("cs_test_1")

	resp = s.call(t, http.MethodGet, confirmPath, studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "confirmed", resp.data()["outcome"])

	resp = s.call(t, http.MethodGet, confirmPath, studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "already_confirmed", resp.data()["outcome"])

	var enrollments int64
	require.NoError(t, s.db.Model(&model.Enrollment{}).Count(&enrollments).Error)
	assert.Equal(t, int64(1), enrollments)

	resp = s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/payment/cancel", course.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "cancelled", resp.data()["outcome"])

	resp = s.call(t, http.MethodGet, "/api/v1/manager/overview", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, 49.99, resp.data()["total_revenue"])

	metrics, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer metrics.Body.Close()
	exposition, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
	assert.Contains(t, string(exposition), `elearning_payment_confirmations_total{outcome="confirmed"}`)
}

func TestGatewayFailureReturnsBadGateway(t *testing.T) {
	s := newTestServer(t)
	_, studentToken := s.account(t, model.RoleStudent, "student")

	course := &model.Course{Title: "Advanced Y", Price: 49.99, IsActive: true}
	require.NoError(t, s.db.Create(course).Error)
	require.NoError(t, s.db.Create(&model.Video{CourseID: course.ID, Title: "Part 1", Order: 1}).Error)
	s.gateway.CreateErr = fmt.Errorf("connection refused")

	resp := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), studentToken, nil)
	assert.Equal(t, http.StatusBadGateway, resp.status)

	var payments int64
	require.NoError(t, s.db.Model(&model.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestManagerPaymentOverride(t *testing.T) {
	s := newTestServer(t)
	_, managerToken := s.account(t, model.RoleManager, "manager")
	student, _ := s.account(t, model.RoleStudent, "student")

	course := &model.Course{Title: "Advanced Y", Price: 49.99, IsActive: true}
	require.NoError(t, s.db.Create(course).Error)
	payment := &model.Payment{StudentID: student.ID, CourseID: course.ID, Amount: 49.99, Currency: "usd", Status: model.PaymentPending}
	require.NoError(t, s.db.Create(payment).Error)

	path := fmt.Sprintf("/api/v1/manager/payments/%d/status", payment.ID)

	resp := s.call(t, http.MethodPut, path, managerToken, map[string]string{"status": "settled"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)

	resp = s.call(t, http.MethodPut, path, managerToken, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "completed", resp.data()["status"])

	var enrollments int64
	require.NoError(t, s.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", student.ID, course.ID).Count(&enrollments).Error)
	assert.Equal(t, int64(1), enrollments)

	resp = s.call(t, http.MethodGet, "/api/v1/manager/payments", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	byStatus := resp.data()["by_status"].(map[string]interface{})
	assert.Len(t, byStatus["completed"], 1)
}

func TestManagerCreatesTrainer(t *testing.T) {
	s := newTestServer(t)
	_, managerToken := s.account(t, model.RoleManager, "manager")

	resp := s.call(t, http.MethodPost, "/api/v1/manager/trainers", managerToken, map[string]string{
		"email":    "tutor@example.com",
		"password": testPassword,
		"name":     "Tutor",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, "trainer", resp.data()["role"])

	resp = s.call(t, http.MethodGet, "/api/v1/manager/trainers", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.list(), 1)
}
