package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobgate/jobgate/service/dao"
	"github.com/jobgate/jobgate/service/scheduler"
)

func TestService_Schedule(t *testing.T) {
	ctx := context.Background()
	service := New()

	meta := scheduler.Metadata{RequestID: "req-1", RequesterID: "userA", ApprovedBy: "admin"}
	handle, err := service.Schedule(ctx, "prod-deploy", map[string]interface{}{"env": "x"}, meta)
	require.NoError(t, err)
	require.NotEmpty(t, handle)

	execution, err := service.Execution(ctx, handle)
	require.NoError(t, err)
	require.NotNil(t, execution)
	assert.Equal(t, "prod-deploy", execution.Resource)
	assert.Equal(t, "x", execution.Parameters["env"])
	assert.Equal(t, meta, execution.Meta)
	assert.False(t, execution.ScheduledAt.IsZero())

	unknown, err := service.Execution(ctx, "no-such-handle")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.Nil(t, unknown)
}

func TestService_Executions(t *testing.T) {
	ctx := context.Background()
	service := New()

	first, err := service.Schedule(ctx, "prod-deploy", nil, scheduler.Metadata{RequestID: "req-1"})
	require.NoError(t, err)
	second, err := service.Schedule(ctx, "prod-restart", nil, scheduler.Metadata{RequestID: "req-2"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	executions, err := service.Executions(ctx)
	require.NoError(t, err)
	assert.Len(t, executions, 2)
}
