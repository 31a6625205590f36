package sms

import "errors"

var (
	ErrInvalidConfig = errors.New("sms.invalid_config")
	ErrInvalidPhone  = errors.New("sms.invalid_phone")
	ErrBadResponse   = errors.New("sms.bad_response")
)
