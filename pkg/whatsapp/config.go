package whatsapp

import "time"

// Config holds WhatsApp Cloud API settings.
type Config struct {
	AccessToken      string        `env:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID    string        `env:"WHATSAPP_PHONE_NUMBER_ID"`
	APIURL           string        `env:"WHATSAPP_API_URL" envDefault:"https://graph.facebook.com/v20.0"`
	PreviewURL       bool          `env:"WHATSAPP_PREVIEW_URL" envDefault:"false"`
	Timeout          time.Duration `env:"WHATSAPP_TIMEOUT" envDefault:"10s"`
	RatePerSecond    float64       `env:"WHATSAPP_RATE_PER_SECOND" envDefault:"20"`
	BreakerThreshold int           `env:"WHATSAPP_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerRecovery  time.Duration `env:"WHATSAPP_BREAKER_RECOVERY" envDefault:"30s"`
}

// Enabled reports whether credentials are configured.
func (c Config) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}
