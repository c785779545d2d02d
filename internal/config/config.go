package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath    = "chatsdk.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultSDKConfigPath = DefaultSDKConfigFileName
	DefaultSettingsPath  = "data/settings.db"
	DefaultResyncSpec    = "@every 30m"
)

// AppConfig configures the host process that embeds the SDK. The SDK
// configuration itself (portal, hublet, environment) lives in its own file,
// see LoadFile.
type AppConfig struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	SDK      SDKConfig      `toml:"sdk"`
	Settings SettingsConfig `toml:"settings"`
	Push     PushConfig     `toml:"push"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// AllowedOrigins limits bridge websocket origins. Empty allows all.
	AllowedOrigins []string `toml:"allowed_origins"`
}

type SDKConfig struct {
	ConfigPath string `toml:"config_path"`
	Watch      bool   `toml:"watch"`
	Debug      bool   `toml:"debug"`
}

type SettingsConfig struct {
	Path string `toml:"path"`
}

type PushConfig struct {
	ResyncSchedule string `toml:"resync_schedule"`
}

// Load reads the host config at path. A missing file yields the defaults.
func Load(path string) (AppConfig, error) {
	cfg := AppConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		SDK: SDKConfig{
			ConfigPath: DefaultSDKConfigPath,
		},
		Settings: SettingsConfig{
			Path: DefaultSettingsPath,
		},
		Push: PushConfig{
			ResyncSchedule: DefaultResyncSpec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
