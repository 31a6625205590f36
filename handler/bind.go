package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxBodySize caps JSON request bodies.
const MaxBodySize = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// BindJSON decodes a JSON request body into v. A missing Content-Type is
// accepted; any other media type is rejected.
func BindJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return ErrUnsupportedMediaType
		}
	}
	if r.ContentLength > MaxBodySize {
		return ErrRequestEntityTooLarge
	}
	if r.Body == nil || r.Body == http.NoBody {
		return BadRequest(errEmptyBody)
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return BadRequest(errEmptyBody)
		}
		return BadRequest(fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

// BadRequest wraps err so that it renders as 400 with err's message.
func BadRequest(err error) error {
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}
