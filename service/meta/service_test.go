package meta

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func TestService_Load(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	err := fs.Upload(ctx, "mem://localhost/jobgate/config.yaml", file.DefaultFileOsMode,
		strings.NewReader("webhookURL: ${env.GATE_WEBHOOK}\n"))
	require.NoError(t, err)
	t.Setenv("GATE_WEBHOOK", "https://hooks.example.com/x")

	service := New(fs, "mem://localhost/jobgate")

	data, err := service.Load(ctx, "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "webhookURL: https://hooks.example.com/x\n", string(data))

	// Absolute URLs bypass the base URL.
	data, err = service.Load(ctx, "mem://localhost/jobgate/config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "webhookURL:")

	_, err = service.Load(ctx, "missing.yaml")
	assert.Error(t, err)
}

func TestService_Exists(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	err := fs.Upload(ctx, "mem://localhost/jobgate/config.yaml", file.DefaultFileOsMode, strings.NewReader("enabled: true"))
	require.NoError(t, err)

	service := New(fs, "mem://localhost/jobgate")

	ok, err := service.Exists(ctx, "config.yaml")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.Exists(ctx, "missing.yaml")
	require.NoError(t, err)
	assert.False(t, ok)
}
