package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// SMTPTransport delivers email over SMTP. Port 465 uses implicit TLS,
// any other port dials plain and upgrades with STARTTLS.
type SMTPTransport struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Send builds the MIME message and delivers it to the recipient.
func (t SMTPTransport) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", t.Host, t.Port)
	message := BuildMIMEMessage(email)

	var auth smtp.Auth
	if t.Username != "" && t.Password != "" {
		auth = smtp.PlainAuth("", t.Username, t.Password, t.Host)
	}

	if t.Port == 465 {
		return t.sendImplicitTLS(addr, auth, email.From, email.To, message)
	}
	return t.sendStartTLS(addr, auth, email.From, email.To, message)
}

func (t SMTPTransport) sendImplicitTLS(addr string, auth smtp.Auth, from, to string, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: t.Host}
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	client, err := smtp.NewClient(conn, t.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()
	return t.submit(client, auth, from, to, msg)
}

func (t SMTPTransport) sendStartTLS(addr string, auth smtp.Auth, from, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: t.Host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	return t.submit(client, auth, from, to, msg)
}

func (t SMTPTransport) submit(client *smtp.Client, auth smtp.Auth, from, to string, msg []byte) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}
