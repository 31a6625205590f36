package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

// DeliveryLog appends rows to notification_logs.
type DeliveryLog struct {
	db DB
}

func NewDeliveryLog(db DB) *DeliveryLog {
	return &DeliveryLog{db: db}
}

// Insert implements dispatch.DeliveryLog. Rows are never updated.
func (l *DeliveryLog) Insert(ctx context.Context, e dispatch.LogEntry) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return fmt.Errorf("insert delivery log: invalid id %q: %w", e.ID, err)
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO notification_logs (
			id, template_id, event_type, channel, recipient, subject, body,
			status, sent_at, error_message, error_code, provider_reference,
			reference_type, reference_id, is_test, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		id, e.TemplateID, e.EventType, string(e.Channel), e.Recipient, e.Subject, e.Body,
		string(e.Status), e.SentAt, nullable(e.ErrorMessage), nullable(string(e.ErrorCode)), nullable(e.ProviderReference),
		nullable(e.ReferenceType), nullable(e.ReferenceID), e.IsTest, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery log %s: %w", e.ID, err)
	}
	return nil
}

// ListByReference returns the log rows of one business object, newest first.
func (l *DeliveryLog) ListByReference(ctx context.Context, refType, refID string) ([]dispatch.LogEntry, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, template_id, event_type, channel, recipient, subject, body,
			status, sent_at, error_message, error_code, provider_reference,
			reference_type, reference_id, is_test, created_at
		FROM notification_logs
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at DESC`, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("list delivery log: %w", err)
	}
	defer rows.Close()

	var out []dispatch.LogEntry
	for rows.Next() {
		var (
			e                            dispatch.LogEntry
			id                           uuid.UUID
			ch, status                   string
			errMsg, errCode, providerRef *string
			referenceType, referenceID   *string
		)
		if err := rows.Scan(
			&id, &e.TemplateID, &e.EventType, &ch, &e.Recipient, &e.Subject, &e.Body,
			&status, &e.SentAt, &errMsg, &errCode, &providerRef,
			&referenceType, &referenceID, &e.IsTest, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery log: %w", err)
		}
		e.ID = id.String()
		e.Channel = channelOf(ch)
		e.Status = dispatch.Status(status)
		e.ErrorMessage = deref(errMsg)
		e.ErrorCode = reasonOf(deref(errCode))
		e.ProviderReference = deref(providerRef)
		e.ReferenceType = deref(referenceType)
		e.ReferenceID = deref(referenceID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list delivery log: %w", err)
	}
	return out, nil
}
