package mail

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	cfgpkg "github.com/authartic/certify/pkg/config"
)

type SMTPMailer struct {
	cfg    cfgpkg.SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg *cfgpkg.Config) Mailer {
	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	return &SMTPMailer{cfg: cfg.SMTP, dialer: dialer}
}

func (s *SMTPMailer) SendBatchArchive(to string, archive []byte) error {
	m := s.newMessage(to, "Your certificates are ready")
	m.SetBody("text/html", `
		<html>
		<body>
			<h2>Your certificates are attached</h2>
			<p>The archive attached to this email contains one document per
			certificate, each with its scannable claim code.</p>
			<p>Hand a certificate to a customer by letting them scan its code.</p>
		</body>
		</html>
	`)
	m.Attach("certificates.zip", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(archive))
		return err
	}))
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send batch archive to %s: %w", to, err)
	}
	return nil
}

func (s *SMTPMailer) newMessage(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}
