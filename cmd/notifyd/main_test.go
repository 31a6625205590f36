package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplatesValidate(t *testing.T) {
	t.Parallel()

	out, err := run(t, "templates", "validate", "../../svc/dispatch/templatefile/testdata/templates")
	require.NoError(t, err)
	assert.Contains(t, out, "order-shipped")
	assert.Contains(t, out, "ticket-created-admins")
	assert.Contains(t, out, "3 templates ok")
}

func TestTemplatesValidate_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := run(t, "templates", "validate", "testdata/missing")
	require.Error(t, err)
}

func TestTestSend_UnknownChannel(t *testing.T) {
	t.Parallel()

	_, err := run(t, "test-send", "welcome", "--channel", "pigeon", "--to", "a@b.com")
	require.ErrorIs(t, err, channel.ErrUnknownChannel)
}

func TestDispatch_RequiresEventType(t *testing.T) {
	t.Parallel()

	_, err := run(t, "dispatch")
	require.Error(t, err)
}
