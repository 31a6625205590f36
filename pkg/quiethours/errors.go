package quiethours

import "errors"

var (
	ErrInvalidTimeOfDay = errors.New("quiethours.invalid_time_of_day")
	ErrInvalidLocation  = errors.New("quiethours.invalid_location")
)
