package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestAddCronJob_Validation(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	assert.Error(t, s.AddCronJob("", "* * * * *", noop))
	assert.Error(t, s.AddCronJob("job", "", noop))
	assert.Error(t, s.AddCronJob("job", "* * * * *", nil))
	assert.Error(t, s.AddCronJob("job", "not a cron", noop))
	assert.NoError(t, s.AddCronJob("job", "0 8 * * *", noop))
}

func TestWrap_PassesSchedulerContext(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	s.Start()

	var got context.Context
	s.wrap("ctx", func(ctx context.Context) error {
		got = ctx
		return nil
	})()
	require.NotNil(t, got)
	assert.NoError(t, got.Err())

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, got.Err(), context.Canceled)
}

func TestToSlogArgs(t *testing.T) {
	assert.Equal(t, []any{"a", 1, "2", "b"}, toSlogArgs([]any{"a", 1, 2, "b"}))
	assert.Equal(t, []any{"a", 1, "value", "tail"}, toSlogArgs([]any{"a", 1, "tail"}))
	assert.Empty(t, toSlogArgs(nil))
}
