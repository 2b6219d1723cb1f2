package goShield

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of [Config].
type fileConfig struct {
	SecretKey string `yaml:"secret_key"`

	Hosts struct {
		Patterns []string `yaml:"patterns"`
		Bypass   bool     `yaml:"bypass"`
	} `yaml:"hosts"`

	CSRF struct {
		Enabled         *bool `yaml:"enabled"`
		RotateOnSuccess *bool `yaml:"rotate_on_success"`
	} `yaml:"csrf"`

	Sanitize struct {
		Enabled    *bool `yaml:"enabled"`
		FailClosed bool  `yaml:"fail_closed"`
	} `yaml:"sanitize"`

	Headers struct {
		ContentSecurityPolicy string            `yaml:"content_security_policy"`
		FrameOptions          string            `yaml:"frame_options"`
		Extra                 []fileHeaderEntry `yaml:"extra"`
		Disabled              bool              `yaml:"disabled"`
	} `yaml:"headers"`

	Audit struct {
		Enabled    bool `yaml:"enabled"`
		BufferSize int  `yaml:"buffer_size"`
		DropIfFull bool `yaml:"drop_if_full"`
	} `yaml:"audit"`

	Metrics struct {
		Enabled                 bool `yaml:"enabled"`
		EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
	} `yaml:"metrics"`
}

type fileHeaderEntry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// LoadConfigFile reads a YAML configuration file and merges it over the
// defaults. Booleans that default to true (csrf.enabled, sanitize.enabled,
// csrf.rotate_on_success) only change when the file sets them explicitly.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := defaultConfig()
	cfg.SecretKey = []byte(fc.SecretKey)
	cfg.Hosts.Patterns = fc.Hosts.Patterns
	cfg.Hosts.Bypass = fc.Hosts.Bypass

	if fc.CSRF.Enabled != nil {
		cfg.CSRF.Enabled = *fc.CSRF.Enabled
	}
	if fc.CSRF.RotateOnSuccess != nil {
		cfg.CSRF.RotateOnSuccess = *fc.CSRF.RotateOnSuccess
	}
	if fc.Sanitize.Enabled != nil {
		cfg.Sanitize.Enabled = *fc.Sanitize.Enabled
	}
	cfg.Sanitize.FailClosed = fc.Sanitize.FailClosed

	if fc.Headers.ContentSecurityPolicy != "" {
		cfg.Headers.ContentSecurityPolicy = fc.Headers.ContentSecurityPolicy
	}
	if fc.Headers.FrameOptions != "" {
		cfg.Headers.FrameOptions = fc.Headers.FrameOptions
	}
	cfg.Headers.Disabled = fc.Headers.Disabled
	for _, h := range fc.Headers.Extra {
		cfg.Headers.Extra = append(cfg.Headers.Extra, HeaderPair{Name: h.Name, Value: h.Value})
	}

	cfg.Audit.Enabled = fc.Audit.Enabled
	if fc.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = fc.Audit.BufferSize
	}
	cfg.Audit.DropIfFull = fc.Audit.DropIfFull

	cfg.Metrics.Enabled = fc.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.EnableLatencyHistograms

	return cfg, nil
}

// WatchConfigFile reloads the pipeline whenever the file at path changes,
// until ctx is done. Editors that replace the file (rename plus create) are
// handled by watching the parent directory. A file that fails to load or
// validate is logged and skipped; the running snapshot stays in place.
func (p *Pipeline) WatchConfigFile(ctx context.Context, path string) error {
	if p == nil {
		return ErrPipelineNotReady
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadConfigFile(path)
			if err != nil {
				p.logger.Error("config reload skipped", zap.Error(err))
				continue
			}
			if err := p.Reload(cfg); err != nil {
				p.logger.Error("config reload rejected", zap.Error(err))
				continue
			}
			p.logger.Info("config file reloaded", zap.String("path", path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("config watcher error", zap.Error(err))
		}
	}
}
