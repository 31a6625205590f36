package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
	"github.com/dmitrymomot/notifykit/svc/dispatch/pgstore"
)

// connect returns a migrated pool, or skips when NOTIFYKIT_TEST_PG_URL is unset.
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("NOTIFYKIT_TEST_PG_URL")
	if url == "" {
		t.Skip("NOTIFYKIT_TEST_PG_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, MaxOpenConns: 4, RetryAttempts: 1, MigrationsTable: "notifykit_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, pgstore.Migrations, logger.Discard()))
	return pool
}

func TestTemplateStore(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	store := pgstore.NewTemplateStore(pool)

	eventType := "test_event_" + uuid.NewString()[:8]
	tmpl := dispatch.Template{
		ID:              "tmpl-" + uuid.NewString(),
		EventType:       eventType,
		Name:            "Integration",
		Channels:        []channel.Channel{channel.Email, channel.Telegram},
		SubjectTemplate: "Hi {{name}}",
		BodyTemplate:    "Body {name}",
		SendToClient:    true,
		IsActive:        true,
	}
	require.NoError(t, store.Upsert(ctx, tmpl))

	got, err := store.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Channels, got.Channels)
	assert.True(t, got.SendToClient)

	tmpl.IsActive = false
	require.NoError(t, store.Upsert(ctx, tmpl))
	list, err := store.ListActive(ctx, eventType)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Get(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, dispatch.ErrTemplateNotFound)
}

func TestDeliveryLogAndRoles(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()

	log := pgstore.NewDeliveryLog(pool)
	refID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)
	entry := dispatch.LogEntry{
		ID:            uuid.NewString(),
		TemplateID:    "t",
		EventType:     "ticket_created",
		Channel:       channel.Email,
		Recipient:     "x@agency.com",
		Body:          "hello",
		Status:        dispatch.StatusFailed,
		ErrorMessage:  "boom",
		ErrorCode:     channel.ReasonProviderUnavailable,
		ReferenceType: "ticket",
		ReferenceID:   refID,
		CreatedAt:     now,
	}
	require.NoError(t, log.Insert(ctx, entry))
	assert.Error(t, log.Insert(ctx, entry), "rows are append-only")

	rows, err := log.ListByReference(ctx, "ticket", refID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entry.ID, rows[0].ID)
	assert.Equal(t, channel.ReasonProviderUnavailable, rows[0].ErrorCode)
	assert.Nil(t, rows[0].SentAt)

	user := "u-" + uuid.NewString()
	role := "role-" + uuid.NewString()[:8]
	_, err = pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, user, role)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO user_contacts (user_id, channel, address) VALUES ($1, 'email', 'z@agency.com')`, user)
	require.NoError(t, err)

	addrs, err := pgstore.NewRoleOracle(pool).AddressesForRole(ctx, role, channel.Email)
	require.NoError(t, err)
	assert.Equal(t, []string{"z@agency.com"}, addrs)
}
