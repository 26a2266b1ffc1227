package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/config"
)

type testServerConfig struct {
	Host string `env:"TEST_SERVER_HOST" envDefault:"localhost"`
	Port int    `env:"TEST_SERVER_PORT" envDefault:"8080"`
}

type testRequiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET_ABSENT,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg testServerConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("cached between calls", func(t *testing.T) {
		var first testServerConfig
		require.NoError(t, config.Load(&first))

		// Changing the environment after the first load has no effect.
		t.Setenv("TEST_SERVER_HOST", "changed.example.com")

		var second testServerConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first.Host, second.Host)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testServerConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg testRequiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg testRequiredConfig
			config.MustLoad(&cfg)
		})
	})
}
