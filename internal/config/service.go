package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/triangulator/internal/monitoring"
)

// Source kinds for point set retrieval.
const (
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultListen             = ":8080"
	DefaultPointSetManagerURL = "http://pointsetmanager.local"
	DefaultRequestTimeout     = 5 * time.Second
	DefaultSource             = SourceHTTP
	DefaultSQLitePath         = "pointsets.db"
	DefaultLogLevel           = "info"
)

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// ServiceConfig is the triangulator's configuration. It is loaded once and
// passed explicitly to the components that need it. Unset fields fall back
// to the defaults above through the Get* accessors, so partial files are
// fine.
type ServiceConfig struct {
	Listen             *string `json:"listen,omitempty" yaml:"listen,omitempty"`
	PointSetManagerURL *string `json:"pointset_manager_url,omitempty" yaml:"pointset_manager_url,omitempty"`
	RequestTimeout     *string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"` // duration string like "5s"
	Source             *string `json:"source,omitempty" yaml:"source,omitempty"`
	SQLitePath         *string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	GRPCHealthListen   *string `json:"grpc_health_listen,omitempty" yaml:"grpc_health_listen,omitempty"`
	DebugCharts        *bool   `json:"debug_charts,omitempty" yaml:"debug_charts,omitempty"`
	LogLevel           *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFile            *string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }

// EmptyServiceConfig returns a config with every field unset.
func EmptyServiceConfig() *ServiceConfig {
	return &ServiceConfig{}
}

// DefaultServiceConfig returns a config with every field set to its default.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Listen:             ptrString(DefaultListen),
		PointSetManagerURL: ptrString(DefaultPointSetManagerURL),
		RequestTimeout:     ptrString(DefaultRequestTimeout.String()),
		Source:             ptrString(DefaultSource),
		SQLitePath:         ptrString(DefaultSQLitePath),
		GRPCHealthListen:   ptrString(""),
		DebugCharts:        ptrBool(false),
		LogLevel:           ptrString(DefaultLogLevel),
		LogFile:            ptrString(""),
	}
}

// LoadServiceConfig reads a .json, .yaml or .yml file, capped at 1MB, and
// validates it.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServiceConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	monitoring.Logf("loaded service config from %s", cleanPath)
	return cfg, nil
}

// Validate checks the values that are set.
func (c *ServiceConfig) Validate() error {
	if c.PointSetManagerURL != nil {
		u, err := url.Parse(*c.PointSetManagerURL)
		if err != nil {
			return fmt.Errorf("invalid pointset_manager_url %q: %w", *c.PointSetManagerURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("pointset_manager_url must be http or https, got %q", *c.PointSetManagerURL)
		}
		if u.Host == "" {
			return fmt.Errorf("pointset_manager_url has no host: %q", *c.PointSetManagerURL)
		}
	}

	if c.RequestTimeout != nil && *c.RequestTimeout != "" {
		d, err := time.ParseDuration(*c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout '%s': %w", *c.RequestTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("request_timeout must be positive, got %s", d)
		}
	}

	if c.Source != nil && *c.Source != "" {
		switch *c.Source {
		case SourceHTTP, SourceSQLite:
		default:
			return fmt.Errorf("source must be %q or %q, got %q", SourceHTTP, SourceSQLite, *c.Source)
		}
	}

	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}

	if c.LogLevel != nil {
		if _, err := monitoring.ParseLevel(*c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
	}

	return nil
}

// GetListen returns the HTTP listen address.
func (c *ServiceConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// GetPointSetManagerURL returns the upstream base URL without a trailing slash.
func (c *ServiceConfig) GetPointSetManagerURL() string {
	if c.PointSetManagerURL == nil || *c.PointSetManagerURL == "" {
		return DefaultPointSetManagerURL
	}
	return strings.TrimRight(*c.PointSetManagerURL, "/")
}

// GetRequestTimeout parses and returns the upstream fetch timeout.
func (c *ServiceConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == nil || *c.RequestTimeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(*c.RequestTimeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// GetSource returns the point set source kind.
func (c *ServiceConfig) GetSource() string {
	if c.Source == nil || *c.Source == "" {
		return DefaultSource
	}
	return *c.Source
}

// GetSQLitePath returns the SQLite store path.
func (c *ServiceConfig) GetSQLitePath() string {
	if c.SQLitePath == nil || *c.SQLitePath == "" {
		return DefaultSQLitePath
	}
	return *c.SQLitePath
}

// GetGRPCHealthListen returns the gRPC health address; empty disables it.
func (c *ServiceConfig) GetGRPCHealthListen() string {
	if c.GRPCHealthListen == nil {
		return ""
	}
	return *c.GRPCHealthListen
}

// GetDebugCharts reports whether the debug chart route is mounted.
func (c *ServiceConfig) GetDebugCharts() bool {
	if c.DebugCharts == nil {
		return false
	}
	return *c.DebugCharts
}

// GetLogLevel returns the log level name.
func (c *ServiceConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return DefaultLogLevel
	}
	return *c.LogLevel
}

// GetLogFile returns the rotating log file path; empty disables it.
func (c *ServiceConfig) GetLogFile() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}
