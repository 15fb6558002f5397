// Package email sends transactional mail through SendGrid, or to the log in development.
package email

import (
	"context"
	"fmt"
	"net/mail"
)

// Message is a single transactional email
type Message struct {
	To       mail.Address
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// EnrollmentConfirmation builds the message sent once a student gains access to a course
func EnrollmentConfirmation(to mail.Address, courseTitle string, amount float64, currency string) Message {
	paid := "This course is free."
	if amount > 0 {
		paid = fmt.Sprintf("Payment received: %.2f %s.", amount, currency)
	}

	greeting := "Hi"
	if to.Name != "" {
		greeting = "Hi " + to.Name
	}

	return Message{
		To:       to,
		Subject:  "You're enrolled in " + courseTitle,
		Text:     fmt.Sprintf("%s,\n\nYou now have access to %q. %s\n\nHappy learning!", greeting, courseTitle, paid),
		HTML:     fmt.Sprintf("<p>%s,</p><p>You now have access to <strong>%s</strong>. %s</p><p>Happy learning!</p>", greeting, courseTitle, paid),
		Category: "enrollment",
	}
}
