package factory

import (
	"fmt"

	"github.com/mikey/contact-relay/internal/adapters/mailer"
	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"go.uber.org/zap"
)

// MailerFactory creates the SMTP mailer and the identity it sends as
type MailerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailerFactory creates a new mailer factory
func NewMailerFactory(cfg *config.Config, logger *zap.Logger) *MailerFactory {
	return &MailerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailer creates an SMTP relay mailer
func (f *MailerFactory) CreateMailer() (core.Mailer, error) {
	mc, err := f.cfg.GetMail()
	if err != nil {
		return nil, err
	}

	switch mc.Encryption {
	case mailer.EncryptionSTARTTLS, mailer.EncryptionTLS, mailer.EncryptionNone:
	default:
		return nil, fmt.Errorf("unsupported mail encryption: %s", mc.Encryption)
	}

	f.logger.Info("Creating SMTP mailer",
		zap.String("relay", mc.Addr()),
		zap.String("encryption", mc.Encryption))

	return mailer.NewSMTPMailer(
		mc.Host,
		mc.Port,
		mc.Username,
		mc.Password,
		mc.Encryption,
		mc.HeloName,
		mc.Timeout,
		f.logger,
	), nil
}

// GetMailIdentity returns the fixed sender and recipient
func (f *MailerFactory) GetMailIdentity() (core.MailIdentity, error) {
	mc, err := f.cfg.GetMail()
	if err != nil {
		return core.MailIdentity{}, err
	}
	if mc.FromAddress == "" {
		return core.MailIdentity{}, fmt.Errorf("mail.from_address is required")
	}
	if mc.ToAddress == "" {
		return core.MailIdentity{}, fmt.Errorf("mail.to_address or mail.username is required")
	}
	return core.MailIdentity{
		FromAddress: mc.FromAddress,
		FromName:    mc.FromName,
		To:          mc.ToAddress,
	}, nil
}
