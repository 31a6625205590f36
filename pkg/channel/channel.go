package channel

import (
	"fmt"
	"strings"
)

// Channel identifies a notification transport.
type Channel string

const (
	Email    Channel = "email"
	SMS      Channel = "sms"
	Telegram Channel = "telegram"
	WhatsApp Channel = "whatsapp"
)

// All lists every supported channel in a stable order.
func All() []Channel {
	return []Channel{Email, SMS, Telegram, WhatsApp}
}

// Parse converts a string into a known Channel. Matching is case-insensitive.
func Parse(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
	return c, nil
}

// Valid reports whether c is a supported channel.
func (c Channel) Valid() bool {
	switch c {
	case Email, SMS, Telegram, WhatsApp:
		return true
	}
	return false
}

// HasSubject reports whether the transport carries a subject line.
func (c Channel) HasSubject() bool {
	return c == Email
}

func (c Channel) String() string {
	return string(c)
}

// Message is what the engine hands to an adapter.
// Subject is empty for channels without a subject concept.
type Message struct {
	Address string
	Subject string
	Body    string
}

// Receipt describes an accepted message.
type Receipt struct {
	// ProviderReference is the provider's message identifier, if it returns one.
	ProviderReference string
}
