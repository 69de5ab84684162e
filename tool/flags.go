package tool

import (
	"flag"

	"github.com/moyoez/localsend-uploader/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override API server port")
	flag.IntVar(&cfg.UseConcurrency, "useConcurrency", 0, "override number of concurrent uploads per batch")
	flag.IntVar(&cfg.UseMaxAttempts, "useMaxAttempts", 0, "override attempt ceiling for transient failures")
	flag.StringVar(&cfg.UseManifest, "manifest", "", "run a single batch from a YAML/JSON manifest and exit")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "do not forward progress to the unix notify socket")
	flag.Parse()
	return cfg
}

// ApplyFlagOverrides merges non-zero flag values into the app config.
func ApplyFlagOverrides(appCfg *types.AppConfig, cfg types.Config) {
	if cfg.UsePort > 0 {
		appCfg.Port = cfg.UsePort
	}
	if cfg.UseConcurrency > 0 {
		appCfg.Concurrency = cfg.UseConcurrency
	}
	if cfg.UseMaxAttempts > 0 {
		appCfg.MaxAttempts = cfg.UseMaxAttempts
	}
	if cfg.SkipNotify {
		appCfg.NotifySocket = ""
	}
}
