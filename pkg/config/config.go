// Package config loads the shell settings from defaults, a rscsh.yaml file,
// RSCSH_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gregLibert/smart-card-shell/pkg/logging"
)

// Name is the base name of the configuration file and the environment prefix.
const Name = "rscsh"

// Backends and UI modes.
const (
	BackendPCSC  = "pcsc"
	BackendPCSCD = "pcscd"

	UIAuto = "auto"
	UITUI  = "tui"
	UILine = "line"
)

type Config struct {
	Backend  string `mapstructure:"backend" yaml:"backend"`
	PCSCD    PCSCD  `mapstructure:"pcscd" yaml:"pcscd"`
	Log      Log    `mapstructure:"log" yaml:"log"`
	Language string `mapstructure:"language" yaml:"language"`
	Tags     Tags   `mapstructure:"tags" yaml:"tags"`
	UI       UI     `mapstructure:"ui" yaml:"ui"`
	Monitor  bool   `mapstructure:"monitor" yaml:"monitor"`
}

// PCSCD configures the daemon socket backend.
type PCSCD struct {
	Socket string `mapstructure:"socket" yaml:"socket"`
	Scope  string `mapstructure:"scope" yaml:"scope"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Tags points at a TOML file of extra TLV tag names.
type Tags struct {
	File string `mapstructure:"file" yaml:"file"`
}

type UI struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// Defaults returns the value of every key when nothing else sets it.
func Defaults() map[string]any {
	return map[string]any{
		"backend":      BackendPCSC,
		"pcscd.socket": "",
		"pcscd.scope":  "system",
		"log.level":    "warn",
		"log.file":     "",
		"language":     "en",
		"tags.file":    "",
		"ui.mode":      UIAuto,
		"monitor":      true,
	}
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"backend":      "backend",
	"pcscd-socket": "pcscd.socket",
	"pcscd-scope":  "pcscd.scope",
	"log-level":    "log.level",
	"log-file":     "log.file",
	"lang":         "language",
	"tags":         "tags.file",
	"ui":           "ui.mode",
	"monitor":      "monitor",
}

// Path returns the per user configuration file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, Name, Name+".yaml"), nil
}

// Load merges every source. file, when not empty, replaces the search of
// rscsh.yaml in the user config directory and the working directory, and
// must exist. Flags of cmd listed in FlagKeys override the rest.
func Load(cmd *cobra.Command, file string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		if path, err := Path(); err == nil {
			v.AddConfigPath(filepath.Dir(path))
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(Name)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range FlagKeys {
			if flag := cmd.Flags().Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	if !slices.Contains([]string{BackendPCSC, BackendPCSCD}, c.Backend) {
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendPCSC, BackendPCSCD)
	}
	if !slices.Contains([]string{"user", "system"}, strings.ToLower(c.PCSCD.Scope)) {
		return fmt.Errorf("unknown pcscd scope %q", c.PCSCD.Scope)
	}
	if !slices.Contains([]string{UIAuto, UITUI, UILine}, c.UI.Mode) {
		return fmt.Errorf("unknown ui mode %q", c.UI.Mode)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write stores c at path, creating the directory.
func Write(c Config, path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o600)
}
