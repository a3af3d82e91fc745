package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v)
	if yaml != "" {
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode(newViper(t, ""))
	require.NoError(t, err)

	require.Equal(t, 60*time.Second, cfg.Points.Message.Cooldown)
	require.Equal(t, int64(15), cfg.Points.Message.Min)
	require.Equal(t, int64(25), cfg.Points.Message.Max)
	require.Equal(t, 30*time.Second, cfg.Points.Reaction.Cooldown)
	require.Equal(t, int64(0), cfg.Points.Reaction.Min)
	require.Equal(t, int64(5), cfg.Points.Reaction.Max)
	require.Equal(t, 120*time.Second, cfg.Points.SweepInterval)
	require.Equal(t, 10, cfg.Points.BoardLimit)
	require.Equal(t, StoreSQL, cfg.Points.Store)
}

func TestDecodeOverrides(t *testing.T) {
	cfg, err := Decode(newViper(t, `
POINTS:
  MESSAGE:
    COOLDOWN: 90s
    MIN: 1
    MAX: 2
  STORE: redis
`))
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.Points.Message.Cooldown)
	require.Equal(t, int64(1), cfg.Points.Message.Min)
	require.Equal(t, int64(2), cfg.Points.Message.Max)
	require.Equal(t, StoreRedis, cfg.Points.Store)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"inverted range": "POINTS:\n  REACTION:\n    MIN: 6\n    MAX: 5\n",
		"negative min":   "POINTS:\n  MESSAGE:\n    MIN: -1\n",
		"zero cooldown":  "POINTS:\n  MESSAGE:\n    COOLDOWN: 0s\n",
		"unknown store":  "POINTS:\n  STORE: mongo\n",
		"board limit":    "POINTS:\n  BOARD_LIMIT: 500\n",
	}

	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(newViper(t, yaml))
			require.Error(t, err)
		})
	}
}
