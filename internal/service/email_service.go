package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"social-backend/config"
	"social-backend/internal/util"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Mailer 发送事务性邮件
type Mailer interface {
	SendWelcomeEmail(email, username string) error
}

type EmailService struct {
	smtpHost string
	smtpPort int
	username string
	password string
	appURL   string
}

func NewEmailService() *EmailService {
	return &EmailService{
		smtpHost: config.AppConfig.SMTPHost,
		smtpPort: config.AppConfig.SMTPPort,
		username: config.AppConfig.SMTPUsername,
		password: config.AppConfig.SMTPPassword,
		appURL:   config.AppConfig.FrontendURL,
	}
}

// SendWelcomeEmail 注册成功后异步发送欢迎邮件
func (s *EmailService) SendWelcomeEmail(email, username string) error {
	subject := "Welcome aboard"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account is ready. Follow people, like posts and join the conversation at <a href="%s">%s</a>.</p>`,
		username, s.appURL, s.appURL)

	s.sendEmailAsync(email, subject, body)
	return nil
}

func (s *EmailService) sendEmailAsync(to, subject, body string) {
	go func() {
		if err := s.sendEmail(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", to))
		}
	}()
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.SSL = s.smtpPort == 465
	d.TLSConfig = &tls.Config{ServerName: s.smtpHost}

	if err := d.DialAndSend(m); err != nil {
		util.Logger.Error("发送邮件失败", zap.Error(err))
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}
