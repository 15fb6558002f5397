package services

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sahilchouksey/elearning-api/database/dbtest"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services/email"
	"github.com/sahilchouksey/elearning-api/services/gateway"
	"github.com/sahilchouksey/elearning-api/services/storage"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testPolicy = auth.MustPolicy()

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	db          *gorm.DB
	gateway     *gateway.Fake
	mailer      *email.ConsoleMailer
	blobs       *storage.MemoryStore
	enrollments *EnrollmentService
	progress    *ProgressService
	ratings     *RatingService
	catalog     *CatalogService
	reports     *ReportService
	accounts    *AccountService

	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	log := logger.NewNop()
	fake := gateway.NewFake()
	mailer := email.NewConsoleMailer(log)
	blobs := storage.NewMemoryStore()

	return &fixture{
		db:      db,
		gateway: fake,
		mailer:  mailer,
		blobs:   blobs,
		enrollments: NewEnrollmentService(db, fake, mailer, log, EnrollmentConfig{
			Currency:       "usd",
			PublicBaseURL:  "https://app.test",
			GatewayTimeout: time.Second,
		}),
		progress: NewProgressService(db, blobs, log),
		ratings:  NewRatingService(db),
		catalog:  NewCatalogService(db, blobs, log),
		reports:  NewReportService(db, nil, log),
		accounts: NewAccountService(db, log),
	}
}

func (f *fixture) user(t *testing.T, role model.Role) *model.User {
	t.Helper()
	f.seq++
	u := &model.User{
		Email:        fmt.Sprintf("%s%d@example.com", role, f.seq),
		Username:     fmt.Sprintf("%s%d", role, f.seq),
		PasswordHash: "unused",
		Name:         fmt.Sprintf("%s %d", role, f.seq),
		Role:         role,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

// course creates an active course with one video per order value
func (f *fixture) course(t *testing.T, title string, price float64, trainer *model.User, orders ...int) (*model.Course, []model.Video) {
	t.Helper()
	c := &model.Course{Title: title, Price: price, IsActive: true}
	if trainer != nil {
		c.TrainerID = &trainer.ID
	}
	require.NoError(t, f.db.Create(c).Error)

	videos := make([]model.Video, 0, len(orders))
	for _, order := range orders {
		v := model.Video{CourseID: c.ID, Title: fmt.Sprintf("%s part %d", title, order), DurationMinutes: 10, Order: order}
		require.NoError(t, f.db.Create(&v).Error)
		videos = append(videos, v)
	}
	return c, videos
}

func (f *fixture) enroll(t *testing.T, student *model.User, course *model.Course) {
	t.Helper()
	_, err := insertEnrollment(f.db, student.ID, course.ID)
	require.NoError(t, err)
}

func (f *fixture) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func rcFor(u *model.User) auth.RequestContext {
	return auth.NewRequestContext(u.ID, u.Role, testPolicy)
}
