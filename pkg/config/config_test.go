package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("VECTORLITEDB_SHARD_COUNT", "4")
	t.Setenv("VECTORLITEDB_DIMENSIONS", "768")

	c := LoadFromEnv()
	assert.Equal(t, 4, c.ShardCount)
	assert.Equal(t, 768, c.Dimensions)
	require.NoError(t, c.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	c := DefaultConfig()
	c.ShardCount = 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.Dimensions = -1
	assert.Error(t, c.Validate())
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.yaml")
	content := "shardCount: 3\nbasePath: /tmp/vl\ndimensions: 512\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ShardCount)
	assert.Equal(t, "/tmp/vl", c.BasePath)
	assert.Equal(t, 512, c.Dimensions)
}
