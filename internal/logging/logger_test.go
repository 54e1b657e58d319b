package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{Level: "info", Format: "json"}
	assert.NoError(t, valid.Validate())

	for _, cfg := range []Config{
		{Level: "verbose", Format: "json"},
		{Level: "info", Format: "xml"},
		{},
	} {
		assert.Error(t, cfg.Validate())
	}
}

func TestNew(t *testing.T) {
	logger, err := New(Config{
		Level:  "debug",
		Format: "console",
		Fields: map[string]string{"service": "test"},
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = New(Config{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
