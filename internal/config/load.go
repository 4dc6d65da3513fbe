package config

import (
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
)

// Load reads path as YAML into a Config. A missing file is not an error:
// it falls back to Default, matching the teacher's cmd/init.go initConfig.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file not found, using default config", "path", path)
			return cfg, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InitLogger installs a global slog.Logger matching cfg.Logger, the same
// role the teacher's cmd/init.go initLogger plays.
func InitLogger(cfg LoggerConfig) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{AddSource: true, Level: parseLevel(cfg.Level)}
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Level, "json", cfg.JSON)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
