package email

// Config holds email channel configuration.
// With no Postmark server token the service falls back to the dev sender,
// which writes messages to DevDir instead of sending them.
type Config struct {
	PostmarkServerToken  string  `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string  `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string  `env:"SENDER_EMAIL" envDefault:"noreply@localhost.dev"`
	SupportEmail         string  `env:"SUPPORT_EMAIL"`
	MessageStream        string  `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	DevDir               string  `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
	RatePerSecond        float64 `env:"EMAIL_RATE_PER_SECOND" envDefault:"0"`
}

// UsePostmark reports whether Postmark credentials are configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != ""
}
