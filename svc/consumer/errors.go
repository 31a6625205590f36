package consumer

import "errors"

var (
	ErrNoBrokers         = errors.New("consumer.no_brokers")
	ErrMalformedMessage  = errors.New("consumer.malformed_message")
	ErrFetch             = errors.New("consumer.fetch_failed")
	ErrCommit            = errors.New("consumer.commit_failed")
	ErrHealthcheckFailed = errors.New("consumer.healthcheck_failed")
)
