package whatsapp

import "errors"

var (
	ErrInvalidConfig = errors.New("whatsapp.invalid_config")
	ErrInvalidPhone  = errors.New("whatsapp.invalid_phone")
	ErrBadResponse   = errors.New("whatsapp.bad_response")
)
