package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/fivepercent/internal/holdings"
)

const (
	// Mode constants
	ModePrint = "print"
	ModeStdio = "stdio"

	// Output formats
	FormatText = "text"
	FormatJSON = "json"

	// Default values
	DefaultDirectory   = "documents"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultWorkers     = 4

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "FIVEPERCENT"
)

// ErrVersionRequested is returned by Load when --version is given.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the fivepercent binary
type Config struct {
	Mode string // "print" or "stdio"

	// Documents
	Directory   string
	Paths       []string // positional arguments, print mode only
	MaxFileSize int64    // Maximum PDF file size in bytes
	Template    string
	AnchorsFile string // custom anchor table, overrides Template

	// Output
	OnlyChanges bool
	Format      string

	// Execution
	Timeout time.Duration
	Workers int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	ConfigFile string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModePrint,
		Directory:   DefaultDirectory,
		MaxFileSize: DefaultMaxFileSize,
		Template:    holdings.DefaultTemplate,
		OnlyChanges: true,
		Format:      FormatText,
		Workers:     DefaultWorkers,
		Version:     "1.0.0",
		ServerName:  "fivepercent",
		LogLevel:    DefaultLogLevel,
	}
}

// LoadFromFlags parses the process arguments and returns a configuration
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:], os.Stderr)
}

// Load builds a configuration from args, FIVEPERCENT_* environment variables
// and an optional config file, in that order of precedence. Usage goes to
// usageOut.
func Load(args []string, usageOut io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	fs := pflag.NewFlagSet(cfg.ServerName, pflag.ContinueOnError)
	fs.SetOutput(usageOut)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(v, fs)
	setupUsageMessage(fs, usageOut)

	if checkVersionFlag(args) {
		return nil, ErrVersionRequested
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)
	cfg.Paths = fs.Args()
	if all, _ := fs.GetBool("all"); all {
		cfg.OnlyChanges = false
	}

	if cfg.Directory != "" {
		if expanded, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("onlychanges", cfg.OnlyChanges)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("template", cfg.Template)
	v.SetDefault("anchors", "")
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("workers", cfg.Workers)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'print' writes reports to stdout, 'stdio' serves MCP over standard I/O")
	fs.String("dir", cfg.Directory, "Directory containing disclosure PDFs")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Bool("onlychanges", cfg.OnlyChanges, "Only report owners whose holding changed")
	fs.Bool("all", false, "Report every owner, changed or not (same as --onlychanges=false)")
	fs.String("format", cfg.Format, "Output format: text or json")
	fs.String("template", cfg.Template, "Built-in column anchor template")
	fs.String("anchors", "", "YAML/JSON/TOML file with a custom column anchor table")
	fs.Duration("timeout", cfg.Timeout, "Maximum time per document (0 for none)")
	fs.Int("workers", cfg.Workers, "Documents processed in parallel")
	fs.String("config", "", "Config file")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	for _, name := range []string{
		"mode", "dir", "loglevel", "maxfilesize", "onlychanges",
		"format", "template", "anchors", "timeout", "workers", "config",
	} {
		_ = v.BindPFlag(name, fs.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, w io.Writer) {
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: fivepercent [flags] [file.pdf|directory ...]\n")
		fmt.Fprintf(w, "\nfivepercent - reads IDX/KSEI 5%% ownership disclosure PDFs and reports holdings per owner\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  fivepercent                          # newest PDF in ./documents\n")
		fmt.Fprintf(w, "  fivepercent report.pdf --all         # every owner in one file\n")
		fmt.Fprintf(w, "  fivepercent --format=json a.pdf b.pdf\n")
		fmt.Fprintf(w, "  fivepercent --mode=stdio --dir=/data # MCP server\n")
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		fmt.Fprintf(w, "  FIVEPERCENT_MODE, FIVEPERCENT_DIR, FIVEPERCENT_LOGLEVEL, FIVEPERCENT_MAXFILESIZE,\n")
		fmt.Fprintf(w, "  FIVEPERCENT_ONLYCHANGES, FIVEPERCENT_FORMAT, FIVEPERCENT_TEMPLATE, FIVEPERCENT_ANCHORS,\n")
		fmt.Fprintf(w, "  FIVEPERCENT_TIMEOUT, FIVEPERCENT_WORKERS, FIVEPERCENT_CONFIG\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = strings.ToLower(v.GetString("mode"))
	cfg.Directory = v.GetString("dir")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.OnlyChanges = v.GetBool("onlychanges")
	cfg.Format = strings.ToLower(v.GetString("format"))
	cfg.Template = v.GetString("template")
	cfg.AnchorsFile = v.GetString("anchors")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.Workers = v.GetInt("workers")
	cfg.ConfigFile = v.GetString("config")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModePrint && c.Mode != ModeStdio {
		return errors.New("mode must be either 'print' or 'stdio'")
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return errors.New("format must be either 'text' or 'json'")
	}

	if c.Directory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	// The MCP server owns its directory; create it like a data dir.
	if c.IsStdioMode() {
		if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create PDF directory %s: %w", c.Directory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access PDF directory %s: %w", c.Directory, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.AnchorsFile == "" {
		if _, err := holdings.LookupTemplate(c.Template); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// anchorFile is the on-disk shape of a custom anchor table.
type anchorFile struct {
	Name    string                  `mapstructure:"name"`
	Anchors []holdings.ColumnAnchor `mapstructure:"anchors"`
}

// LoadAnchorTable returns the custom anchor table when one is configured,
// otherwise the built-in template.
func (c *Config) LoadAnchorTable() (holdings.AnchorTable, error) {
	if c.AnchorsFile == "" {
		return holdings.LookupTemplate(c.Template)
	}

	v := viper.New()
	v.SetConfigFile(c.AnchorsFile)
	if err := v.ReadInConfig(); err != nil {
		return holdings.AnchorTable{}, fmt.Errorf("cannot read anchor file %s: %w", c.AnchorsFile, err)
	}
	var f anchorFile
	if err := v.Unmarshal(&f); err != nil {
		return holdings.AnchorTable{}, fmt.Errorf("cannot decode anchor file %s: %w", c.AnchorsFile, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(c.AnchorsFile), filepath.Ext(c.AnchorsFile))
	}
	return holdings.NewAnchorTable(f.Name, f.Anchors)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Directory: %s, Format: %s, OnlyChanges: %t, Template: %s, "+
		"LogLevel: %s, MaxFileSize: %d, Workers: %d, Timeout: %s}",
		c.Mode, c.Directory, c.Format, c.OnlyChanges, c.Template,
		c.LogLevel, c.MaxFileSize, c.Workers, c.Timeout)
}

// IsStdioMode returns true if the binary serves MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsPrintMode returns true if the binary prints reports and exits
func (c *Config) IsPrintMode() bool {
	return c.Mode == ModePrint
}
