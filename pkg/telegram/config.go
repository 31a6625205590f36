package telegram

import "time"

// Config holds Telegram Bot API settings.
type Config struct {
	BotToken         string        `env:"TELEGRAM_BOT_TOKEN"`
	APIURL           string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	ParseMode        string        `env:"TELEGRAM_PARSE_MODE"`
	Timeout          time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"10s"`
	RatePerSecond    float64       `env:"TELEGRAM_RATE_PER_SECOND" envDefault:"30"`
	BreakerThreshold int           `env:"TELEGRAM_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerRecovery  time.Duration `env:"TELEGRAM_BREAKER_RECOVERY" envDefault:"30s"`
}

// Enabled reports whether a bot token is configured.
func (c Config) Enabled() bool {
	return c.BotToken != ""
}
