// Package config manages apivcs user configuration and filesystem paths.
//
// Settings come from a YAML file in the XDG config directory
// (~/.config/apivcs/config.yaml by default), overridden by APIVCS_*
// environment variables, overridden in turn by command line flags bound by
// the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Keys understood in the config file and as APIVCS_<KEY> environment variables.
const (
	KeyIdentity = "identity"
	KeyOrgID    = "org_id"
	KeyRemote   = "remote"
	KeyLogLevel = "log_level"

	envPrefix = "APIVCS"
)

// Paths contains the filesystem paths used by apivcs outside a working tree.
type Paths struct {
	// ConfigFile is the global config file
	ConfigFile string

	// RemoteDir is the default root of the directory backed remote
	RemoteDir string
}

// DefaultPaths returns the default paths for apivcs.
// APIVCS_CONFIG overrides the config file location.
func DefaultPaths() *Paths {
	configFile := os.Getenv(envPrefix + "_CONFIG")
	if configFile == "" {
		configFile = filepath.Join(xdg.ConfigHome, "apivcs", "config.yaml")
	}
	return &Paths{
		ConfigFile: configFile,
		RemoteDir:  filepath.Join(xdg.DataHome, "apivcs", "remote"),
	}
}

// Config is the resolved user configuration.
type Config struct {
	// Identity names this user when holding remote locks
	Identity string `mapstructure:"identity"`

	// OrgID is the organization new bindings are recorded under
	OrgID string `mapstructure:"org_id"`

	// Remote is the root directory of the remote store
	Remote string `mapstructure:"remote"`

	// LogLevel is a zap level name
	LogLevel string `mapstructure:"log_level"`
}

// NewViper creates a viper instance with defaults, the config file and
// environment overrides wired in.
func NewViper(paths *Paths) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyIdentity, DefaultIdentity())
	v.SetDefault(KeyOrgID, "")
	v.SetDefault(KeyRemote, paths.RemoteDir)
	v.SetDefault(KeyLogLevel, "warn")

	v.SetConfigFile(paths.ConfigFile)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and resolves the configuration.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Identity) == "" {
		return fmt.Errorf("config: %s must not be empty", KeyIdentity)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", KeyLogLevel, c.LogLevel, err)
	}
	return nil
}

// ErrOrgRequired is returned by RequireOrg when no organization is configured.
var ErrOrgRequired = errors.New("organization is not set")

// RequireOrg fails unless an organization is configured. Only commands that
// record a new binding need one.
func (c *Config) RequireOrg() error {
	if strings.TrimSpace(c.OrgID) == "" {
		return fmt.Errorf("%w: pass --org, set %s_ORG_ID or add %s to the config file",
			ErrOrgRequired, envPrefix, KeyOrgID)
	}
	return nil
}

// Level returns the logging level, forced to debug when verbose is set.
func (c *Config) Level(verbose bool) zap.AtomicLevel {
	if verbose {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return level
}

// DefaultIdentity returns user@host, falling back to whatever part is known.
func DefaultIdentity() string {
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	host, _ := os.Hostname()

	switch {
	case user != "" && host != "":
		return user + "@" + host
	case user != "":
		return user
	default:
		return host
	}
}
