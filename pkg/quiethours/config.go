package quiethours

// Config holds the global quiet hours policy as read from the environment.
// Setting QUIET_HOURS_START equal to QUIET_HOURS_END silences every
// non-urgent notification for the whole day.
type Config struct {
	Enabled  bool   `env:"QUIET_HOURS_ENABLED" envDefault:"false"`
	Start    string `env:"QUIET_HOURS_START" envDefault:"22:00"`
	End      string `env:"QUIET_HOURS_END" envDefault:"08:00"`
	Timezone string `env:"QUIET_HOURS_TIMEZONE" envDefault:"UTC"`
}

// Policy converts the configuration into a Policy.
func (c Config) Policy() (Policy, error) {
	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return Policy{}, err
	}
	return NewPolicy(c.Enabled, c.Start, c.End, loc)
}
