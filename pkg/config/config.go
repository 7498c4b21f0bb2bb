// Package config loads VectorLiteDB's runtime configuration from the
// environment, in the teacher's own getEnv/LoadFromEnv/Validate style, plus
// an optional YAML shard-topology file for callers that want it declared
// in one place instead of scattered across env vars.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cssvb94/vectorlitedb/pkg/ann"
)

// Config is VectorLiteDB's full runtime configuration.
type Config struct {
	ShardCount int
	BasePath   string
	Password   string
	Dimensions int

	HNSW ann.Config

	LogLevel string
	Debug    bool
}

// DefaultConfig returns the configuration a fresh install starts with.
func DefaultConfig() *Config {
	return &Config{
		ShardCount: 1,
		BasePath:   "",
		Dimensions: 384,
		HNSW:       ann.DefaultConfig(),
		LogLevel:   "INFO",
		Debug:      false,
	}
}

// LoadFromEnv reads VECTORLITEDB_-prefixed environment variables over the
// defaults.
func LoadFromEnv() *Config {
	c := DefaultConfig()

	c.ShardCount = getEnvInt("VECTORLITEDB_SHARD_COUNT", c.ShardCount)
	c.BasePath = getEnv("VECTORLITEDB_BASE_PATH", c.BasePath)
	c.Password = getEnv("VECTORLITEDB_PASSWORD", c.Password)
	c.Dimensions = getEnvInt("VECTORLITEDB_DIMENSIONS", c.Dimensions)

	c.HNSW.M = getEnvInt("VECTORLITEDB_HNSW_M", c.HNSW.M)
	c.HNSW.EfConstruction = getEnvInt("VECTORLITEDB_HNSW_EF_CONSTRUCTION", c.HNSW.EfConstruction)
	c.HNSW.EfSearchDefault = getEnvInt("VECTORLITEDB_HNSW_EF_SEARCH_DEFAULT", c.HNSW.EfSearchDefault)

	c.LogLevel = getEnv("VECTORLITEDB_LOG_LEVEL", c.LogLevel)
	c.Debug = getEnvBool("VECTORLITEDB_DEBUG", c.Debug)

	return c
}

// topologyFile is the on-disk shape of an optional YAML shard-topology
// document, loaded via LoadFile as an alternative to the positional
// ShardRouter(shard_count, base_path) constructor args.
type topologyFile struct {
	ShardCount int    `yaml:"shardCount"`
	BasePath   string `yaml:"basePath"`
	Password   string `yaml:"password"`
	Dimensions int    `yaml:"dimensions"`
	HNSW       struct {
		M               int `yaml:"m"`
		EfConstruction  int `yaml:"efConstruction"`
		EfSearchDefault int `yaml:"efSearchDefault"`
	} `yaml:"hnsw"`
}

// LoadFile reads a YAML shard-topology document and layers it over the
// defaults. Unset fields keep their default value.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var tf topologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	c := DefaultConfig()
	if tf.ShardCount > 0 {
		c.ShardCount = tf.ShardCount
	}
	if tf.BasePath != "" {
		c.BasePath = tf.BasePath
	}
	if tf.Password != "" {
		c.Password = tf.Password
	}
	if tf.Dimensions > 0 {
		c.Dimensions = tf.Dimensions
	}
	if tf.HNSW.M > 0 {
		c.HNSW.M = tf.HNSW.M
	}
	if tf.HNSW.EfConstruction > 0 {
		c.HNSW.EfConstruction = tf.HNSW.EfConstruction
	}
	if tf.HNSW.EfSearchDefault > 0 {
		c.HNSW.EfSearchDefault = tf.HNSW.EfSearchDefault
	}
	return c, nil
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	if c.ShardCount <= 0 {
		return fmt.Errorf("shard count must be positive, got %d", c.ShardCount)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", c.Dimensions)
	}
	if c.HNSW.M <= 0 {
		return fmt.Errorf("hnsw M must be positive, got %d", c.HNSW.M)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
