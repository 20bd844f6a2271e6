// Package config provides the configuration loader for stashsync.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const maxPollIntervalMs = 600000

var logLevels = []string{"debug", "info", "warn", "error"}

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Filename string
	logger   ports.Logger
}

// NewLoader creates a loader for domain.ConfigFileName.
func NewLoader(logger ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{Filename: domain.ConfigFileName, logger: logger}
}

// Load searches cwd and its parents for the config file and reads the first
// one found. Defaults are returned when there is none.
func (l *FileConfigLoader) Load(cwd string) (*domain.Config, error) {
	path, found, err := Find(cwd, l.Filename)
	if err != nil {
		return nil, err
	}
	if !found {
		if l.logger != nil {
			l.logger.Debug("no config file found, using defaults", "cwd", cwd)
		}
		return domain.DefaultConfig(), nil
	}
	return Load(path)
}

// Find walks up from dir looking for filename.
func Find(dir, filename string) (string, bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	for {
		path := filepath.Join(dir, filename)
		info, err := os.Stat(path)
		switch {
		case err == nil && !info.IsDir():
			return path, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads a configuration file from the given path.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	cfg, err := file.toDomain(filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	cfg.Path = path
	return cfg, nil
}

func (f *File) toDomain(dir string) (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	if f.PollIntervalMs != nil {
		ms := *f.PollIntervalMs
		if ms <= 0 || ms > maxPollIntervalMs {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "pollIntervalMs"), "value", ms)
		}
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}

	if f.GCIntervalMs != nil {
		ms := *f.GCIntervalMs
		if ms <= 0 {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "gcIntervalMs"), "value", ms)
		}
		cfg.GCInterval = time.Duration(ms) * time.Millisecond
	}

	if f.Upstream.LatencyMs < 0 {
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "upstream.latencyMs"), "value", f.Upstream.LatencyMs)
	}
	if f.Upstream.StaleReadMs < 0 {
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "upstream.staleReadMs"), "value", f.Upstream.StaleReadMs)
	}
	cfg.Upstream = domain.UpstreamConfig{
		Latency:         time.Duration(f.Upstream.LatencyMs) * time.Millisecond,
		StaleReadWindow: time.Duration(f.Upstream.StaleReadMs) * time.Millisecond,
	}

	if f.Log.Level != "" {
		level := strings.ToLower(f.Log.Level)
		if !slices.Contains(logLevels, level) {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "log.level"), "value", f.Log.Level)
		}
		cfg.LogLevel = level
	}
	cfg.LogJSON = f.Log.JSON

	cfg.Persistence = resolveDSN(f.Persistence, dir)
	return cfg, nil
}

// resolveDSN makes a relative file:// path relative to the config file.
func resolveDSN(dsn, dir string) string {
	path, ok := strings.CutPrefix(dsn, "file://")
	if !ok || path == "" || filepath.IsAbs(path) {
		return dsn
	}
	return "file://" + filepath.Join(dir, path)
}
