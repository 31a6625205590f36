package sms

import "time"

// Config holds SMS gateway settings.
type Config struct {
	GatewayURL       string        `env:"SMS_GATEWAY_URL"`
	APIKey           string        `env:"SMS_API_KEY"`
	SenderID         string        `env:"SMS_SENDER_ID"`
	MaxLength        int           `env:"SMS_MAX_LENGTH" envDefault:"1600"`
	Timeout          time.Duration `env:"SMS_TIMEOUT" envDefault:"10s"`
	RatePerSecond    float64       `env:"SMS_RATE_PER_SECOND" envDefault:"10"`
	BreakerThreshold int           `env:"SMS_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerRecovery  time.Duration `env:"SMS_BREAKER_RECOVERY" envDefault:"30s"`
}

// Enabled reports whether a gateway is configured.
func (c Config) Enabled() bool {
	return c.GatewayURL != "" && c.APIKey != ""
}
