// Package config loads and validates the YAML configuration for a load run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabload/tabload/internal/util"
)

// Config is the top-level configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Inference   InferenceConfig   `yaml:"inference"`
	Load        LoadConfig        `yaml:"load"`
	LogLevel    string            `yaml:"log_level"`
	LogFormat   string            `yaml:"log_format"`
}

// SourceConfig describes where the input file comes from and how to parse it.
type SourceConfig struct {
	// Path is a local file path. Ignored when S3 is configured.
	Path      string    `yaml:"path"`
	Delimiter string    `yaml:"delimiter"` // single character, default ","
	NoHeader  bool      `yaml:"no_header"` // first row is data, synthesize column names
	S3        *S3Config `yaml:"s3"`        // optional object-store source
}

// S3Config points at an object in an S3-compatible store.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Object    string `yaml:"object"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DestinationConfig holds destination database connection settings.
type DestinationConfig struct {
	Type            string `yaml:"type"` // postgres, mssql, mysql, sqlite
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Database        string `yaml:"database"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Schema          string `yaml:"schema"`
	Table           string `yaml:"table"`
	SSLMode         string `yaml:"ssl_mode"`          // postgres: disable, require, verify-ca, verify-full
	TrustServerCert bool   `yaml:"trust_server_cert"` // mssql
	Path            string `yaml:"path"`              // sqlite database file
}

// InferenceConfig controls sampling and type resolution.
type InferenceConfig struct {
	// Strategy is "widest" (default) or "narrowest".
	Strategy string `yaml:"strategy"`

	// SampleRows caps how many data rows feed type inference. Defaults to
	// 10000; negative values sample every row.
	SampleRows int `yaml:"sample_rows"`

	// NullLiterals is a comma-separated list of values treated as null in
	// addition to the empty string.
	NullLiterals string `yaml:"null_literals"`

	// BoolLexicon is a comma-separated list of accepted boolean literals,
	// replacing the default true/false, yes/no, 1/0.
	BoolLexicon string `yaml:"bool_lexicon"`

	// CaseSensitiveNames matches file columns to table columns byte-for-byte
	// instead of case-insensitively.
	CaseSensitiveNames bool `yaml:"case_sensitive_names"`
}

// NullLiteralList returns the parsed null literal list.
func (c *InferenceConfig) NullLiteralList() []string { return util.SplitList(c.NullLiterals) }

// BoolLexiconList returns the parsed boolean lexicon, or nil for defaults.
func (c *InferenceConfig) BoolLexiconList() []string { return util.SplitList(c.BoolLexicon) }

// LoadConfig controls the write phase.
type LoadConfig struct {
	// BatchSize is rows per insert batch.
	BatchSize int `yaml:"batch_size"`

	// CreateTable creates the destination table from the inferred schema
	// when it does not exist.
	CreateTable bool `yaml:"create_table"`

	// ClearBefore truncates the destination table before loading.
	ClearBefore bool `yaml:"clear_before"`

	// AllowLossy proceeds when columns are loadable but not identical.
	AllowLossy bool `yaml:"allow_lossy"`
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Delimiter == "" {
		c.Source.Delimiter = ","
	}
	if c.Inference.Strategy == "" {
		c.Inference.Strategy = "widest"
	}
	if c.Inference.SampleRows == 0 {
		c.Inference.SampleRows = 10000
	}
	if c.Load.BatchSize <= 0 {
		c.Load.BatchSize = 1000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}

	switch c.Destination.Type {
	case "postgres":
		if c.Destination.Port == 0 {
			c.Destination.Port = 5432
		}
		if c.Destination.Schema == "" {
			c.Destination.Schema = "public"
		}
		if c.Destination.SSLMode == "" {
			c.Destination.SSLMode = "disable"
		}
	case "mssql":
		if c.Destination.Port == 0 {
			c.Destination.Port = 1433
		}
		if c.Destination.Schema == "" {
			c.Destination.Schema = "dbo"
		}
	case "mysql":
		if c.Destination.Port == 0 {
			c.Destination.Port = 3306
		}
	}
}

// Validate checks the configuration for inconsistencies the load would trip
// over later.
func (c *Config) Validate() error {
	if c.Source.Path == "" && c.Source.S3 == nil {
		return fmt.Errorf("source: either path or s3 must be set")
	}
	if len(c.Source.Delimiter) != 1 {
		return fmt.Errorf("source: delimiter must be a single character, got %q", c.Source.Delimiter)
	}
	if c.Source.S3 != nil {
		s3 := c.Source.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.Object == "" {
			return fmt.Errorf("source: s3 requires endpoint, bucket and object")
		}
	}

	switch c.Destination.Type {
	case "postgres", "mssql", "mysql":
		if c.Destination.Host == "" {
			return fmt.Errorf("destination: host is required for %s", c.Destination.Type)
		}
		if c.Destination.Database == "" {
			return fmt.Errorf("destination: database is required for %s", c.Destination.Type)
		}
	case "sqlite":
		if c.Destination.Path == "" {
			return fmt.Errorf("destination: path is required for sqlite")
		}
	case "":
		return fmt.Errorf("destination: type is required")
	default:
		return fmt.Errorf("destination: unknown type %q", c.Destination.Type)
	}

	if c.Destination.Table == "" {
		return fmt.Errorf("destination: table is required")
	}

	switch c.Inference.Strategy {
	case "widest", "widest-fit", "narrowest", "narrowest-fit":
	default:
		return fmt.Errorf("inference: unknown strategy %q", c.Inference.Strategy)
	}
	return nil
}
