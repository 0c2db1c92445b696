package pub

import (
	"context"
	"testing"

	"hookstate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvNone(t *testing.T) {
	p, err := FromEnv(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFromEnvUnknown(t *testing.T) {
	_, err := FromEnv(context.Background(), "kafka")
	assert.ErrorIs(t, err, types.ErrInvalidBackend)
}

func TestFromEnvSNS(t *testing.T) {
	t.Setenv(SNSEndpointKey, "http://localhost:4566")
	t.Setenv("AWS_REGION", "us-east-1")
	p, err := FromEnv(context.Background(), PublisherSNS)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
