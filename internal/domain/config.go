package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Scratch   ScratchConfig   `mapstructure:"scratch"`
	Client    ClientConfig    `mapstructure:"client"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains relay server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// GatewayConfig contains configuration for the presentation-side gateway
type GatewayConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ExtractorConfig contains external tool configuration
type ExtractorConfig struct {
	Binary          string        `mapstructure:"binary"`
	CookieFile      string        `mapstructure:"cookie_file"`
	ExtraArgs       []string      `mapstructure:"extra_args"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"` // 0 disables
	DownloadTimeout time.Duration `mapstructure:"download_timeout"` // 0 disables
	MaxConcurrent   int           `mapstructure:"max_concurrent"`   // 0 is unbounded
}

// ScratchConfig contains configuration for temporary download files
type ScratchConfig struct {
	Dir string `mapstructure:"dir"` // empty means <os temp dir>/media-relay
}

// ClientConfig contains configuration for callers of the relay
type ClientConfig struct {
	BackendURL string        `mapstructure:"backend_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorized log files; empty disables
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Gateway: GatewayConfig{
			Host: "localhost",
			Port: 3000,
		},
		Extractor: ExtractorConfig{
			Binary:          "yt-dlp",
			MetadataTimeout: 2 * time.Minute,
			DownloadTimeout: 30 * time.Minute,
			MaxConcurrent:   0,
		},
		Scratch: ScratchConfig{
			Dir: "",
		},
		Client: ClientConfig{
			BackendURL: "http://localhost:8080",
			Timeout:    0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "",
		},
	}
}
