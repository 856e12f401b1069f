package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "daily after the UTC close", spec: "5 0 * * *"},
		{name: "descriptor", spec: "@every 4h"},
		{name: "invalid", spec: "every day", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(tt.spec, func() (string, error) { return "id", nil })
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Entries(), 1)
			assert.Equal(t, time.UTC, c.Location())
		})
	}
}

func TestNew_JobSubmits(t *testing.T) {
	t.Parallel()
	calls := 0
	c, err := New("5 0 * * *", func() (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("queue full")
		}
		return "scan-1", nil
	})
	require.NoError(t, err)

	job := c.Entries()[0].WrappedJob
	job.Run()
	job.Run()
	assert.Equal(t, 2, calls)

	next := c.Entries()[0].Schedule.Next(time.Date(2025, 1, 15, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 16, 0, 5, 0, 0, time.UTC), next)
}
