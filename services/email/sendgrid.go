package email

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer delivers mail through the SendGrid v3 API
type SendgridMailer struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	log        *logger.Logger
}

var _ Mailer = (*SendgridMailer)(nil)

func NewSendgridMailer(apiKey string, from mail.Address, appName string, log *logger.Logger) *SendgridMailer {
	return &SendgridMailer{
		key:        apiKey,
		host:       sendgridHost,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + appName + "] ",
		log:        log,
	}
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	if msg.Category != "" {
		v3.AddCategories(msg.Category)
	}
	return v3
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.log.Warn("sendgrid rejected email", "status", res.StatusCode, "body", res.Body, "category", msg.Category)
		return fmt.Errorf("sending email: status %d", res.StatusCode)
	}
	return nil
}
