package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding the server
// configuration, e.g. WDGLANCE_PORT or WDGLANCE_KORPUS_TOKEN.
const EnvPrefix = "WDGLANCE"

// LoadServerConf reads the server configuration. JSON files are accepted
// as they are valid YAML. Missing values keep their defaults.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadServerConf(path string) (*ServerConf, error) {
	conf := NewServerConf()
	if err := loadFile(path, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadClientConf reads the tile and layout configuration.
func LoadClientConf(path string) (*ClientConf, error) {
	var conf ClientConf
	if err := loadFile(path, &conf); err != nil {
		return nil, err
	}
	if conf.Tiles == nil {
		conf.Tiles = make(map[string]*TileConf)
	}
	for name, t := range conf.Tiles {
		if t == nil {
			return nil, fmt.Errorf("tile %s: empty configuration", name)
		}
	}
	return &conf, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// FindConfigFile searches for a configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for name in the current directory
// 3. Look for name in the XDG configuration directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath, name string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), name)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// NewEnv returns a viper instance reading EnvPrefix environment variables.
// Nested keys use an underscore, so "korpus.token" maps to WDGLANCE_KORPUS_TOKEN.
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyEnv overrides selected values with the ones found in v.
// Secrets are expected to come from the environment rather than conf.json.
func (s *ServerConf) ApplyEnv(v *viper.Viper) {
	if v.IsSet("address") {
		s.Address = v.GetString("address")
	}
	if v.IsSet("port") {
		s.Port = v.GetInt("port")
	}
	if v.IsSet("querylang") {
		s.QueryLang = v.GetString("querylang")
	}
	if v.IsSet("upstream.proxy") {
		s.Upstream.ProxyAddress = v.GetString("upstream.proxy")
	}
	if v.IsSet("korpus.token") && s.KorpusAPI != nil {
		s.KorpusAPI.Token = v.GetString("korpus.token")
	}
}
