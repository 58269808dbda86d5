package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/voxelsplace/svo/codec"
)

// Config holds the svotool settings.
type Config struct {
	// TreeSize is the edge length of newly created trees.
	TreeSize uint32 `yaml:"tree_size"`
	// Compression is the snapshot codec: none, zlib or zstd.
	Compression string `yaml:"compression"`
	LogLevel    string `yaml:"log_level"`
	// LogFormat is text or json.
	LogFormat string `yaml:"log_format"`
}

// maxTreeSize keeps every coordinate encodable in an edit stream.
const maxTreeSize = 1 << codec.MaxAxisBits

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TreeSize:    64,
		Compression: "zstd",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// LoadConfig loads configuration with priority: env > file > defaults. A
// missing file is not an error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path != "" {
		if err := loadConfigFile(path, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}
	loadConfigFromEnv(&config)
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, config)
}

func loadConfigFromEnv(config *Config) {
	if v := os.Getenv("SVO_TREE_SIZE"); v != "" {
		if i, err := strconv.ParseUint(v, 10, 32); err == nil {
			config.TreeSize = uint32(i)
		}
	}
	if v := os.Getenv("SVO_COMPRESSION"); v != "" {
		config.Compression = v
	}
	if v := os.Getenv("SVO_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("SVO_LOG_FORMAT"); v != "" {
		config.LogFormat = v
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.TreeSize < 2 || c.TreeSize&(c.TreeSize-1) != 0 {
		return fmt.Errorf("tree_size %d is not a power of two >= 2", c.TreeSize)
	}
	if c.TreeSize > maxTreeSize {
		return fmt.Errorf("tree_size %d exceeds %d", c.TreeSize, maxTreeSize)
	}
	if _, err := codec.ParseCompression(c.Compression); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Codec returns the configured snapshot compression. Call Validate first.
func (c *Config) Codec() codec.Compression {
	comp, _ := codec.ParseCompression(c.Compression)
	return comp
}

// NewLogger builds the logger described by c.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
