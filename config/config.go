package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	ChainGraph ChainGraphConfig `yaml:"chaingraph"`
}

// ChainGraphConfig is the project configuration.
type ChainGraphConfig struct {
	Input   InputConfig   `yaml:"input"`
	Chain   ChainConfig   `yaml:"chain"`
	Render  RenderConfig  `yaml:"render"`
	Rules   RulesConfig   `yaml:"rules"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig selects where incident snapshots come from.
type InputConfig struct {
	// Mode is snapshot, records, or redis.
	Mode    string      `yaml:"mode"`
	Path    string      `yaml:"path"`
	TraceID string      `yaml:"trace_id"`
	Redis   RedisConfig `yaml:"redis"`
}

// ChainConfig controls traversal behavior.
type ChainConfig struct {
	MaxDepth    int  `yaml:"max_depth"`
	SingleChain bool `yaml:"single_chain"`
}

// RenderConfig controls the diagram layout.
type RenderConfig struct {
	BoxWidth int    `yaml:"box_width"`
	Indent   string `yaml:"indent"`
}

// RulesConfig controls detection rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RedisConfig controls the Redis snapshot queue.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	Key          string `yaml:"key"`
	MaxDocuments int    `yaml:"max_documents"`
}

// OutputConfig controls where reports go.
type OutputConfig struct {
	Mode string           `yaml:"mode"` // file|http|stdout
	File FileOutputConfig `yaml:"file"`
	HTTP HTTPOutputConfig `yaml:"http"`
}

// FileOutputConfig config for local report output.
type FileOutputConfig struct {
	Dir string `yaml:"dir"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
