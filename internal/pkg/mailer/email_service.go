// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendNotificationNotice(toEmail, title, body string) error
	SendDirectMessageNotice(toEmail, senderName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string // links in notices open the dashboard here
}

func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

func (s *emailService) newMessage(toEmail, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *emailService) SendNotificationNotice(toEmail, title, body string) error {
	content := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>%s</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open dashboard</a>
		</div>
	`, html.EscapeString(title), html.EscapeString(body), s.clientURL)

	return s.dialer.DialAndSend(s.newMessage(toEmail, title, content))
}

// SendDirectMessageNotice never includes the message text; the recipient reads it in the app.
func (s *emailService) SendDirectMessageNotice(toEmail, senderName string) error {
	content := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>New message</h2>
			<p>%s sent you a message while you were away.</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reply</a>
		</div>
	`, html.EscapeString(senderName), s.clientURL)

	return s.dialer.DialAndSend(s.newMessage(toEmail, "You have a new message", content))
}
