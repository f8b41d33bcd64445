package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		PollInterval: 3 * time.Second,
		GracePeriod:  30 * time.Second,
		ChangePath:   "/data/dict.update",
		OutcomePath:  "/data/dict.done",
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	zeroGrace := validConfig()
	zeroGrace.GracePeriod = 0
	assert.NoError(t, zeroGrace.Validate())

	cases := map[string]func(c *Config){
		"zero poll":      func(c *Config) { c.PollInterval = 0 },
		"negative grace": func(c *Config) { c.GracePeriod = -time.Second },
		"no change path": func(c *Config) { c.ChangePath = "" },
		"no outcome":     func(c *Config) { c.OutcomePath = "" },
		"same paths":     func(c *Config) { c.OutcomePath = c.ChangePath },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	d, err := LoadDefaults()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d.PollInterval)
	assert.Equal(t, 30*time.Second, d.GracePeriod)

	t.Setenv("DOUBLEBUFFER_MONITOR_INTERVAL", "250ms")
	t.Setenv("DOUBLEBUFFER_OLD_BUF_LIFE_TIME", "0s")
	d, err = LoadDefaults()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d.PollInterval)
	assert.Equal(t, time.Duration(0), d.GracePeriod)

	t.Setenv("DOUBLEBUFFER_MONITOR_INTERVAL", "soon")
	_, err = LoadDefaults()
	assert.Error(t, err)
}

func TestConfig_ValidateTimings(t *testing.T) {
	c := Config{PollInterval: time.Second}
	assert.NoError(t, c.ValidateTimings())
	assert.Error(t, c.Validate())

	c.GracePeriod = -1
	assert.Error(t, c.ValidateTimings())
}
