package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/contact-relay/internal/core"
	"go.uber.org/zap"
)

// Encryption modes for the relay connection
const (
	EncryptionSTARTTLS = "starttls"
	EncryptionTLS      = "tls"
	EncryptionNone     = "none"
)

// SMTPMailer delivers messages through an authenticated SMTP relay
type SMTPMailer struct {
	addr       string
	host       string
	username   string
	password   string
	encryption string
	heloName   string
	timeout    time.Duration
	tlsConfig  *tls.Config
	logger     *zap.Logger
}

// NewSMTPMailer creates a new relay mailer
func NewSMTPMailer(
	host string,
	port int,
	username string,
	password string,
	encryption string,
	heloName string,
	timeout time.Duration,
	logger *zap.Logger,
) *SMTPMailer {
	if heloName == "" {
		// Get hostname for EHLO
		if hostname, err := os.Hostname(); err == nil {
			heloName = hostname
		} else {
			heloName = "localhost"
		}
	}

	return &SMTPMailer{
		addr:       net.JoinHostPort(host, fmt.Sprint(port)),
		host:       host,
		username:   username,
		password:   password,
		encryption: strings.ToLower(encryption),
		heloName:   heloName,
		timeout:    timeout,
		tlsConfig:  &tls.Config{ServerName: host},
		logger:     logger,
	}
}

// Send delivers msg. The whole session, dial included, is bounded by the
// configured timeout or the context deadline, whichever is sooner.
func (m *SMTPMailer) Send(ctx context.Context, msg *core.Message) error {
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := m.dial(ctx, deadline)
	if err != nil {
		return err
	}

	// Set a deadline for the connection
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c, err := m.newClient(conn)
	if err != nil {
		return err
	}
	defer c.Close()

	// after STARTTLS this is a fresh EHLO over the encrypted session
	if err := c.Hello(m.heloName); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if m.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.username, m.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(msg.FromAddress, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(msg.To, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(render(msg, time.Now())); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// Quit the connection
	if err := c.Quit(); err != nil {
		// the message has already been accepted
		m.logger.Warn("QUIT command failed", zap.Error(err))
	}

	m.logger.Debug("Message accepted by relay",
		zap.String("relay", m.addr),
		zap.String("to", msg.To))
	return nil
}

// newClient wraps conn in an SMTP client, upgrading it with STARTTLS first
// when configured
func (m *SMTPMailer) newClient(conn net.Conn) (*smtp.Client, error) {
	if m.encryption != EncryptionSTARTTLS {
		return smtp.NewClient(conn), nil
	}

	c, err := smtp.NewClientStartTLS(conn, m.tlsConfig)
	if err != nil {
		// NewClientStartTLS closes conn on failure
		return nil, fmt.Errorf("STARTTLS with relay %s failed: %w", m.addr, err)
	}
	return c, nil
}

func (m *SMTPMailer) dial(ctx context.Context, deadline time.Time) (net.Conn, error) {
	dialer := &net.Dialer{Deadline: deadline}

	if m.encryption == EncryptionTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: m.tlsConfig}
		conn, err := tlsDialer.DialContext(ctx, "tcp", m.addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to relay %s: %w", m.addr, err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay %s: %w", m.addr, err)
	}
	return conn, nil
}
