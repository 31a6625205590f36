package quiethours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is like NewTimeOfDay but panics on invalid input.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "HH:MM" (seconds, if present, are ignored).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return NewTimeOfDay(hour, minute)
}

// Of returns the time of day of t in t's own location.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Policy is a global silence window from Start (inclusive) to End
// (exclusive). When Start is after End the window wraps midnight, so
// 22:00-08:00 silences the night. Equal bounds, such as 08:00-08:00, are
// treated as a wrapped window and silence the whole day while enabled.
type Policy struct {
	Enabled  bool
	Start    TimeOfDay
	End      TimeOfDay
	Location *time.Location // nil means the location of the time being checked
}

// NewPolicy parses start and end ("HH:MM") into a Policy.
func NewPolicy(enabled bool, start, end string, loc *time.Location) (Policy, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Policy{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Enabled: enabled, Start: s, End: e, Location: loc}, nil
}

// Disabled returns a policy that never suppresses.
func Disabled() Policy {
	return Policy{}
}

// Overnight reports whether the window wraps midnight.
func (p Policy) Overnight() bool {
	return p.Start >= p.End
}

// Suppressed reports whether a non-urgent send at now must be skipped.
func (p Policy) Suppressed(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.Location != nil {
		now = now.In(p.Location)
	}

	t := Of(now)
	if p.Start < p.End {
		return t >= p.Start && t < p.End
	}
	return t >= p.Start || t < p.End
}

func (p Policy) String() string {
	if !p.Enabled {
		return "disabled"
	}
	return p.Start.String() + "-" + p.End.String()
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return loc, nil
}
