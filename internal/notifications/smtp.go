package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const defaultSMTPSPort = "465"

// mailSender delivers an already formatted message.
type mailSender func(ctx context.Context, addr, user, password, from string, to []string, msg []byte) error

type smtpService struct {
	addr     string
	user     string
	password string
	from     string
	timeout  time.Duration
	send     mailSender
	now      func() time.Time
}

func newSMTPService(server, user, password, from string, timeout time.Duration) *smtpService {
	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, defaultSMTPSPort)
	}
	return &smtpService{
		addr:     addr,
		user:     user,
		password: password,
		from:     from,
		timeout:  timeout,
		send:     sendImplicitTLS,
		now:      time.Now,
	}
}

func (s *smtpService) Send(ctx context.Context, msg Message) error {
	recipient := strings.TrimSpace(msg.Recipient)
	if recipient == "" {
		return fmt.Errorf("smtp: no recipient")
	}
	data := formatMail(s.from, recipient, msg.Subject, msg.Body, s.now())
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.send(ctx, s.addr, s.user, s.password, s.from, []string{recipient}, data); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}
	return nil
}

func formatMail(from, to, subject, body string, date time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", date.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	normalized := strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n")
	buf.WriteString(normalized)
	return buf.Bytes()
}

// sendImplicitTLS opens a TLS connection (SMTPS), authenticates, and sends.
func sendImplicitTLS(ctx context.Context, addr, user, password, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 30 * time.Second}, Config: &tls.Config{ServerName: host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if user != "" {
		if err := client.Auth(smtp.PlainAuth("", user, password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end data: %w", err)
	}
	return client.Quit()
}
