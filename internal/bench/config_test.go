package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown kind", func(c *Config) { c.Kind = "fifo" }, `unknown kind "fifo"`},
		{"mapped without path", func(c *Config) { c.Kind = KindMapped; c.Path = "" }, "mapped channel needs a path"},
		{"no producers", func(c *Config) { c.Producers = 0 }, "at least one producer"},
		{"no consumers", func(c *Config) { c.Consumers = 0 }, "at least one consumer"},
		{"negative items", func(c *Config) { c.ItemsPerProducer = -1 }, "items per producer"},
		{"negative capacity", func(c *Config) { c.Capacity = -1 }, "capacity must not be negative"},
		{"small items", func(c *Config) { c.Kind = KindBytes; c.ItemSize = 4 }, "item size must be at least 8 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestConfigValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Producers = 0
	cfg.Consumers = 0

	err := cfg.Validate()
	assert.ErrorContains(t, err, "producer")
	assert.ErrorContains(t, err, "consumer")
}

func TestGenericIgnoresItemSize(t *testing.T) {
	cfg := Default()
	cfg.ItemSize = 0
	assert.NoError(t, cfg.Validate())
}
