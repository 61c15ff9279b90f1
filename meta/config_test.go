package meta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults without environment", func(t *testing.T) {
		cfg, err := configFromEnv(envOf(nil))
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("overriding from environment", func(t *testing.T) {
		cfg, err := configFromEnv(envOf(map[string]string{
			"TICTACTOE_ADDR":         ":9090",
			"TICTACTOE_EPSILON":      "0.3",
			"TICTACTOE_COMPAT_PROBE": "true",
			"TICTACTOE_WORKERS":      "4",
			"TICTACTOE_TABLE_PATH":   "table.json",
		}))
		require.NoError(t, err)
		require.Equal(t, ":9090", cfg.Addr)
		require.Equal(t, 0.3, cfg.Epsilon)
		require.True(t, cfg.CompatProbe)
		require.Equal(t, 4, cfg.Workers)
		require.Equal(t, "table.json", cfg.TablePath)
	})

	t.Run("malformed numbers are reported", func(t *testing.T) {
		_, err := configFromEnv(envOf(map[string]string{"TICTACTOE_EPSILON": "lots"}))
		require.Error(t, err)
	})

	t.Run("out of range epsilon fails validation", func(t *testing.T) {
		_, err := configFromEnv(envOf(map[string]string{"TICTACTOE_EPSILON": "1.5"}))
		require.Error(t, err)
	})
}
