package config

import (
	"flag"
	"time"
)

// Flags holds the command-line overrides for a ServiceConfig. Only flags the
// user actually set are applied, so file values survive unset flags.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath  string
	Listen      string
	PointSetURL string
	Timeout     time.Duration
	Source      string
	DBPath      string
	GRPCListen  string
	DebugCharts bool
	LogLevel    string
	LogFile     string
	Version     bool
}

// RegisterFlags defines the service flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a .json or .yaml config file")
	fs.StringVar(&f.Listen, "listen", DefaultListen, "HTTP listen address")
	fs.StringVar(&f.PointSetURL, "pointset-url", DefaultPointSetManagerURL, "PointSetManager base URL")
	fs.DurationVar(&f.Timeout, "timeout", DefaultRequestTimeout, "PointSetManager request timeout")
	fs.StringVar(&f.Source, "source", DefaultSource, "Point set source: http or sqlite")
	fs.StringVar(&f.DBPath, "db", DefaultSQLitePath, "SQLite point set store (source=sqlite)")
	fs.StringVar(&f.GRPCListen, "grpc-listen", "", "gRPC health listen address (empty disables)")
	fs.BoolVar(&f.DebugCharts, "debug-charts", false, "Mount /debug/triangulation/{id}")
	fs.StringVar(&f.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFile, "log-file", "", "Rotating log file (empty disables)")
	fs.BoolVar(&f.Version, "version", false, "Print version and exit")
	return f
}

// Apply copies every explicitly set flag onto cfg.
func (f *Flags) Apply(cfg *ServiceConfig) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "listen":
			cfg.Listen = ptrString(f.Listen)
		case "pointset-url":
			cfg.PointSetManagerURL = ptrString(f.PointSetURL)
		case "timeout":
			cfg.RequestTimeout = ptrString(f.Timeout.String())
		case "source":
			cfg.Source = ptrString(f.Source)
		case "db":
			cfg.SQLitePath = ptrString(f.DBPath)
		case "grpc-listen":
			cfg.GRPCHealthListen = ptrString(f.GRPCListen)
		case "debug-charts":
			cfg.DebugCharts = ptrBool(f.DebugCharts)
		case "log-level":
			cfg.LogLevel = ptrString(f.LogLevel)
		case "log-file":
			cfg.LogFile = ptrString(f.LogFile)
		}
	})
}

// Load builds the effective config: defaults < file (when -config is set) <
// flags. The result is validated.
func (f *Flags) Load() (*ServiceConfig, error) {
	cfg := EmptyServiceConfig()
	if f.ConfigPath != "" {
		loaded, err := LoadServiceConfig(f.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
