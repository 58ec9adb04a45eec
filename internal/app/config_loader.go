package app

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mediagrab/media-relay/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.media-relay")
		v.AddConfigPath("/etc/media-relay")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	config := domain.DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// newViper returns a viper instance seeded with defaults and env bindings.
// PORT and BACKEND_URL are honoured alongside the prefixed variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, domain.DefaultConfig())

	v.SetEnvPrefix("MEDIARELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "MEDIARELAY_SERVER_PORT", "PORT")
	_ = v.BindEnv("client.backend_url", "MEDIARELAY_CLIENT_BACKEND_URL", "BACKEND_URL")

	return v
}

// setDefaults registers every key so AutomaticEnv can override it on Unmarshal
func setDefaults(v *viper.Viper, config *domain.Config) {
	for key, value := range configValues(config) {
		v.SetDefault(key, value)
	}
}

// configValues flattens config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                config.Server.Host,
		"server.port":                config.Server.Port,
		"gateway.host":               config.Gateway.Host,
		"gateway.port":               config.Gateway.Port,
		"extractor.binary":           config.Extractor.Binary,
		"extractor.cookie_file":      config.Extractor.CookieFile,
		"extractor.extra_args":       config.Extractor.ExtraArgs,
		"extractor.metadata_timeout": config.Extractor.MetadataTimeout.String(),
		"extractor.download_timeout": config.Extractor.DownloadTimeout.String(),
		"extractor.max_concurrent":   config.Extractor.MaxConcurrent,
		"scratch.dir":                config.Scratch.Dir,
		"client.backend_url":         config.Client.BackendURL,
		"client.timeout":             config.Client.Timeout.String(),
		"logging.level":              config.Logging.Level,
		"logging.format":             config.Logging.Format,
		"logging.output_path":        config.Logging.OutputPath,
		"logging.logs_dir":           config.Logging.LogsDir,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Extractor.CookieFile = expandPath(config.Extractor.CookieFile)
	config.Scratch.Dir = expandPath(config.Scratch.Dir)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Scratch.Dir == "" {
		config.Scratch.Dir = filepath.Join(os.TempDir(), "media-relay")
	}

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Gateway.Port < 1 || config.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port: %d", config.Gateway.Port)
	}

	if config.Extractor.Binary == "" {
		return fmt.Errorf("extractor binary not configured")
	}

	if config.Extractor.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent cannot be negative")
	}

	if config.Extractor.MetadataTimeout < 0 || config.Extractor.DownloadTimeout < 0 {
		return fmt.Errorf("extractor timeouts cannot be negative")
	}

	u, err := url.Parse(config.Client.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url: %q", config.Client.BackendURL)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
