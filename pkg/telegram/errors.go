package telegram

import "errors"

var (
	ErrMissingToken  = errors.New("telegram.missing_token")
	ErrInvalidChatID = errors.New("telegram.invalid_chat_id")
	ErrAPI           = errors.New("telegram.api_error")
)
