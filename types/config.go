package types

import "time"

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Port               int           `yaml:"port"`
	Concurrency        int           `yaml:"concurrency"`
	MaxAttempts        int           `yaml:"maxAttempts"`
	BaseDelay          time.Duration `yaml:"baseDelay"`
	MaxDelay           time.Duration `yaml:"maxDelay"`
	FetchTimeout       time.Duration `yaml:"fetchTimeout"`
	SubmitTimeout      time.Duration `yaml:"submitTimeout"`
	RateLimit          float64       `yaml:"rateLimit"`   // submissions per second, 0 means unlimited
	MaxFileSize        int64         `yaml:"maxFileSize"` // bytes, 0 means unlimited
	FileField          string        `yaml:"fileField"`
	BlobField          string        `yaml:"blobField"`
	SendChecksum       bool          `yaml:"sendChecksum"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
	NotifySocket       string        `yaml:"notifySocket,omitempty"`
	NotifyWebsocket    bool          `yaml:"notifyWebsocket"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log            string
	UseConfigPath  string
	UsePort        int
	UseConcurrency int
	UseMaxAttempts int
	UseManifest    string // run one batch from a manifest file and exit
	SkipNotify     bool   // if true, skip unix socket notify.
}
