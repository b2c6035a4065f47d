package email

// Config holds email service configuration. Postmark tokens are
// optional so development environments can run with the DevSender
// instead. SenderEmail and SupportEmail establish the sender identity
// and reply-to behavior for all outbound mail.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@soundrift.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@soundrift.local"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./data/outbox"`
}

// NewSender picks the Postmark client when tokens are configured and
// falls back to the on-disk DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken != "" && cfg.PostmarkAccountToken != "" {
		return NewPostmarkClient(cfg)
	}
	return NewDevSender(cfg.DevOutputDir), nil
}
