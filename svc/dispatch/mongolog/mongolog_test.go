package mongolog_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
	"github.com/dmitrymomot/notifykit/svc/dispatch/mongolog"
)

// Runs against a real server when NOTIFYKIT_TEST_MONGO_URL is set.
func TestDeliveryLog(t *testing.T) {
	url := os.Getenv("NOTIFYKIT_TEST_MONGO_URL")
	if url == "" {
		t.Skip("NOTIFYKIT_TEST_MONGO_URL not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, mongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		MaxPoolSize:    5,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("notifykit_test_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	log := mongolog.New(db, "")
	require.NoError(t, log.EnsureIndexes(ctx))

	ref := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	first := dispatch.LogEntry{
		ID:            uuid.NewString(),
		TemplateID:    "ticket-created",
		EventType:     "ticket.created",
		Channel:       channel.Email,
		Recipient:     "a@agency.com",
		Body:          "hello",
		Status:        dispatch.StatusSent,
		SentAt:        &now,
		ReferenceType: "ticket",
		ReferenceID:   ref,
		CreatedAt:     now,
	}
	second := first
	second.ID = uuid.NewString()
	second.Status = dispatch.StatusFailed
	second.SentAt = nil
	second.ErrorCode = channel.ReasonTimeout
	second.CreatedAt = now.Add(time.Second)

	require.NoError(t, log.Insert(ctx, first))
	require.NoError(t, log.Insert(ctx, second))
	require.ErrorIs(t, log.Insert(ctx, first), mongolog.ErrDuplicateEntry)

	got, err := log.ListByReference(ctx, "ticket", ref)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, channel.ReasonTimeout, got[0].ErrorCode)
	assert.Nil(t, got[0].SentAt)
	require.NotNil(t, got[1].SentAt)
	assert.True(t, now.Equal(*got[1].SentAt))
}
