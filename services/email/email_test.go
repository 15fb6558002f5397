package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentConfirmation(t *testing.T) {
	msg := EnrollmentConfirmation(mail.Address{Name: "Asha", Address: "asha@example.com"}, "Advanced Y", 49.99, "usd")
	assert.Equal(t, "You're enrolled in Advanced Y", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Asha")
	assert.Contains(t, msg.Text, "49.99 usd")

	free := EnrollmentConfirmation(mail.Address{Address: "x@example.com"}, "Intro to X", 0, "usd")
	assert.Contains(t, free.Text, "This course is free.")
}

func TestConsoleMailerRecords(t *testing.T) {
	m := NewConsoleMailer(logger.NewNop())
	require.NoError(t, m.Send(context.Background(), Message{Subject: "a"}))
	require.NoError(t, m.Send(context.Background(), Message{Subject: "b"}))

	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "b", sent[1].Subject)
}

func TestSendgridMailerPostsV3Payload(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendgridMailer("SG.test", mail.Address{Name: "E-Learning", Address: "noreply@example.com"}, "E-Learning", logger.NewNop())
	m.host = srv.URL

	err := m.Send(context.Background(), Message{
		To:      mail.Address{Address: "student@example.com"},
		Subject: "Welcome",
		Text:    "hello",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)

	personalizations := body["personalizations"].([]interface{})
	first := personalizations[0].(map[string]interface{})
	assert.Equal(t, "[E-Learning] Welcome", first["subject"])
}

func TestSendgridMailerRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewSendgridMailer("bad", mail.Address{Address: "noreply@example.com"}, "E-Learning", logger.NewNop())
	m.host = srv.URL

	err := m.Send(context.Background(), Message{To: mail.Address{Address: "a@example.com"}, Subject: "x"})
	assert.Error(t, err)
}
