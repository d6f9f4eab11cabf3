package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/carebook/scheduling-api/internal/config"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendFollowUpReminder(_ context.Context, reminder FollowUpReminder) error {
	subject := fmt.Sprintf("Follow-up reminder: appointment with Dr. %s", reminder.DoctorName)

	body := fmt.Sprintf(
		"Dear %s,<br><br>"+
			"This is a reminder that Dr. %s recommended a follow-up visit on <b>%s</b>, "+
			"after your appointment on %s.<br><br>",
		reminder.PatientName,
		reminder.DoctorName,
		reminder.FollowUpDate.Format("Monday, 2 January 2006"),
		reminder.PreviousAppointmentDate.Format("2 January 2006"),
	)
	if reminder.Notes != "" {
		body += fmt.Sprintf("Doctor's notes: %s<br><br>", reminder.Notes)
	}
	body += "Please book a slot at your earliest convenience."

	return s.send(reminder.PatientEmail, subject, body)
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, content string) error {
	return s.send(to, subject, content)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
