package notifications

import (
	"fmt"
	"log"
	"strings"

	config "github.com/legendaryias/ias_mentor/configs"
	"gopkg.in/gomail.v2"
)

type SMTPService struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var EmailClient *SMTPService

func InitEmailService() {
	from := config.Config("EMAIL_FROM")
	user := config.Config("SMTP_USER")
	if from == "" {
		from = user
	}

	if user == "" || config.Config("SMTP_PASS") == "" || from == "" {
		log.Println("⚠️ Email service not configured. Missing SMTP_USER, SMTP_PASS or EMAIL_FROM.")
		EmailClient = nil
		return
	}

	EmailClient = &SMTPService{
		Host:     config.Get("SMTP_HOST", "smtp.gmail.com"),
		Port:     config.GetInt("SMTP_PORT", 587),
		Username: user,
		Password: config.Config("SMTP_PASS"),
		From:     from,
	}
	log.Println("✅ Email service initialized successfully.")
}

func (s *SMTPService) send(toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	if toName != "" {
		m.SetAddressHeader("To", toEmail, toName)
	} else {
		m.SetHeader("To", toEmail)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlContent)

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	return d.DialAndSend(m)
}

// SendEmail delivers an HTML email. It is a no-op when SMTP is not configured.
func SendEmail(toName, toEmail, subject, htmlContent string) {
	if EmailClient == nil {
		log.Println("Email client not initialized, skipping email send.")
		return
	}

	if err := EmailClient.send(toEmail, toName, subject, htmlContent); err != nil {
		log.Printf("🔥 Failed to send email to %s: %v", toEmail, err)
		return
	}

	log.Printf("✅ Email sent successfully to %s", toEmail)
}
