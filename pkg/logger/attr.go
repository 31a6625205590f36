package logger

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Channel accepts any string-like channel identifier.
func Channel[T ~string](ch T) slog.Attr {
	return slog.String("channel", string(ch))
}

func TemplateID(id string) slog.Attr {
	return slog.String("template_id", id)
}

// Reference records the business object a notification is about.
// An empty reference yields an empty Attr.
func Reference(refType, refID string) slog.Attr {
	if refType == "" && refID == "" {
		return slog.Attr{}
	}
	return Group("reference", slog.String("type", refType), slog.String("id", refID))
}

// Recipient records a masked form of addr under "recipient".
func Recipient(addr string) slog.Attr {
	return slog.String("recipient", MaskAddress(addr))
}

func Status(status string) slog.Attr {
	return slog.String("status", status)
}

func Reason(reason string) slog.Attr {
	if reason == "" {
		return slog.Attr{}
	}
	return slog.String("reason", reason)
}

func Count(name string, n int) slog.Attr {
	return slog.Int(name, n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records id under "request_id". An empty id yields an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// MaskAddress hides most of an email local part or a phone number.
//
//	x@agency.com     -> x***@agency.com
//	+15550102030     -> +1555***030
func MaskAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if local, domain, ok := strings.Cut(addr, "@"); ok && local != "" {
		return local[:1] + "***@" + domain
	}
	if len(addr) <= 6 {
		return addr[:1] + "***"
	}
	return addr[:5] + "***" + addr[len(addr)-3:]
}
