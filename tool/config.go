package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/localsend-uploader/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Port:            53318,
		Concurrency:     4,
		MaxAttempts:     3,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		FetchTimeout:    DefaultTimeout,
		SubmitTimeout:   2 * time.Minute,
		RateLimit:       0,
		MaxFileSize:     0,
		FileField:       "file",
		BlobField:       "data",
		SendChecksum:    false,
		NotifySocket:    "",
		NotifyWebsocket: true,
	}
}

// normalizeConfig fills zero values left by a partial config file.
func normalizeConfig(cfg *types.AppConfig) bool {
	def := DefaultConfig()
	changed := false
	if cfg.Port <= 0 {
		cfg.Port, changed = def.Port, true
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency, changed = def.Concurrency, true
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts, changed = def.MaxAttempts, true
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay, changed = def.BaseDelay, true
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay, changed = max(def.MaxDelay, cfg.BaseDelay), true
	}
	// zero timeouts are kept: they disable the per-attempt deadline
	if cfg.FetchTimeout < 0 {
		cfg.FetchTimeout, changed = def.FetchTimeout, true
	}
	if cfg.SubmitTimeout < 0 {
		cfg.SubmitTimeout, changed = def.SubmitTimeout, true
	}
	if cfg.FileField == "" {
		cfg.FileField, changed = def.FileField, true
	}
	if cfg.BlobField == "" {
		cfg.BlobField, changed = def.BlobField, true
	}
	return changed
}

func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	if normalizeConfig(&cfg) {
		DefaultLogger.Debugf("Config file %s had missing values, filled with defaults", path)
		if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
			DefaultLogger.Warnf("Failed to update config file: %v", writeErr)
		}
	}

	CurrentConfig = cfg
	return cfg, nil
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}

// LoadManifest reads a batch manifest. Files ending in .json are decoded with sonic, everything else as YAML.
func LoadManifest(path string) (*types.UploadBatchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %v", err)
	}
	var req types.UploadBatchRequest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = sonic.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &req, nil
}
