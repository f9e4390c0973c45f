package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/config"
)

func TestOptions(t *testing.T) {
	opts, err := Options(config.RedisConfig{Addr: "127.0.0.1:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = Options(config.RedisConfig{Addr: "redis://:secret@cache.internal:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	opts, err = Options(config.RedisConfig{Addr: "redis://cache.internal:6380/3", Password: "override"})
	require.NoError(t, err)
	assert.Equal(t, "override", opts.Password)

	_, err = Options(config.RedisConfig{Addr: "redis://cache.internal:6380/notadb"})
	assert.Error(t, err)
}
