package mailer

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"bazario/config"
)

// Sender delivers a built message; swapped for a recorder in tests.
type Sender interface {
	Send(to, subject, text, html string) error
}

// SMTPSender delivers transactional email over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	log    *logrus.Entry
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
		log:    logrus.WithField("component", "mailer"),
	}
}

var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) Send(to, subject, text, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "send email")
	}
	s.log.WithField("to", to).Debug("email sent")
	return nil
}
