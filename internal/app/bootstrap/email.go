package bootstrap

import (
	appconfig "github.com/wolfman30/smilecare-dental/internal/config"
	"github.com/wolfman30/smilecare-dental/internal/notify"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// BuildEmailSender selects the e-mail provider named by EMAIL_PROVIDER. A
// provider that is selected but not configured degrades to the stub.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.EmailSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger), "stub"
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			logger.Info("sendgrid email sender initialized")
			return sender, "sendgrid"
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is not set; using stub sender")
	case "ses":
		if ses != nil {
			logger.Info("SES email sender initialized")
			return notify.NewSESSender(ses, notify.SESConfig{FromEmail: cfg.EmailFrom, FromName: cfg.EmailFromName}, logger), "ses"
		}
		logger.Warn("EMAIL_PROVIDER=ses but no SES client available; using stub sender")
	}
	return notify.NewStubEmailSender(logger), "stub"
}
