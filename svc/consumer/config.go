package consumer

import "time"

type Config struct {
	Brokers         []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic           string        `env:"KAFKA_TOPIC" envDefault:"notification-events"`
	GroupID         string        `env:"KAFKA_GROUP_ID" envDefault:"notifykit"`
	DeadLetterTopic string        `env:"KAFKA_DEAD_LETTER_TOPIC"`
	MinBytes        int           `env:"KAFKA_MIN_BYTES" envDefault:"1"`
	MaxBytes        int           `env:"KAFKA_MAX_BYTES" envDefault:"10485760"`
	MaxWait         time.Duration `env:"KAFKA_MAX_WAIT" envDefault:"1s"`
	SessionTimeout  time.Duration `env:"KAFKA_SESSION_TIMEOUT" envDefault:"30s"`
	StartFromLatest bool          `env:"KAFKA_START_FROM_LATEST" envDefault:"false"`
	DialTimeout     time.Duration `env:"KAFKA_DIAL_TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether brokers are configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}
