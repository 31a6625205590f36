package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

const templateColumns = `id, event_type, name, channels, subject_template, body_template,
	send_to_admins, send_to_client, send_to_assigned, send_to_contact,
	is_active, urgent, created_at, updated_at`

// TemplateStore reads and writes notification_templates.
type TemplateStore struct {
	db DB
}

func NewTemplateStore(db DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// ListActive implements dispatch.TemplateStore.
func (s *TemplateStore) ListActive(ctx context.Context, eventType string) ([]dispatch.Template, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+templateColumns+` FROM notification_templates
		WHERE event_type = $1 AND is_active
		ORDER BY id`, eventType)
	if err != nil {
		return nil, fmt.Errorf("list templates for %q: %w", eventType, err)
	}
	templates, err := pgx.CollectRows(rows, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("list templates for %q: %w", eventType, err)
	}
	return templates, nil
}

// Get implements dispatch.TemplateStore.
func (s *TemplateStore) Get(ctx context.Context, id string) (dispatch.Template, error) {
	rows, err := s.db.Query(ctx, `SELECT `+templateColumns+` FROM notification_templates WHERE id = $1`, id)
	if err != nil {
		return dispatch.Template{}, fmt.Errorf("get template %q: %w", id, err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTemplate)
	if pg.IsNotFoundError(err) {
		return dispatch.Template{}, fmt.Errorf("%w: %s", dispatch.ErrTemplateNotFound, id)
	}
	if err != nil {
		return dispatch.Template{}, fmt.Errorf("get template %q: %w", id, err)
	}
	return t, nil
}

// Upsert inserts t or replaces the template with the same ID.
func (s *TemplateStore) Upsert(ctx context.Context, t dispatch.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	channels := make([]string, len(t.Channels))
	for i, ch := range t.Channels {
		channels[i] = string(ch)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_templates (
			id, event_type, name, channels, subject_template, body_template,
			send_to_admins, send_to_client, send_to_assigned, send_to_contact,
			is_active, urgent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			name = EXCLUDED.name,
			channels = EXCLUDED.channels,
			subject_template = EXCLUDED.subject_template,
			body_template = EXCLUDED.body_template,
			send_to_admins = EXCLUDED.send_to_admins,
			send_to_client = EXCLUDED.send_to_client,
			send_to_assigned = EXCLUDED.send_to_assigned,
			send_to_contact = EXCLUDED.send_to_contact,
			is_active = EXCLUDED.is_active,
			urgent = EXCLUDED.urgent,
			updated_at = now()`,
		t.ID, t.EventType, t.Name, channels, t.SubjectTemplate, t.BodyTemplate,
		t.SendToAdmins, t.SendToClient, t.SendToAssigned, t.SendToContact,
		t.IsActive, t.Urgent,
	)
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", t.ID, err)
	}
	return nil
}

func scanTemplate(row pgx.CollectableRow) (dispatch.Template, error) {
	var (
		t        dispatch.Template
		channels []string
	)
	err := row.Scan(
		&t.ID, &t.EventType, &t.Name, &channels, &t.SubjectTemplate, &t.BodyTemplate,
		&t.SendToAdmins, &t.SendToClient, &t.SendToAssigned, &t.SendToContact,
		&t.IsActive, &t.Urgent, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return dispatch.Template{}, err
	}
	t.Channels = toChannels(channels)
	return t, nil
}

// toChannels keeps unknown names so Template.Validate can report them.
func toChannels(names []string) []channel.Channel {
	out := make([]channel.Channel, len(names))
	for i, n := range names {
		out[i] = channelOf(n)
	}
	return out
}
