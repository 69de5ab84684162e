package batch

import (
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/moyoez/localsend-uploader/types"
)

const (
	DefaultConcurrency = 4
	DefaultMaxAttempts = 3
)

// RetryPolicy configures exponential backoff between attempts of one task.
type RetryPolicy struct {
	MaxAttempts  int           // total attempts including the first
	BaseDelay    time.Duration // delay after the first failed attempt
	MaxDelay     time.Duration // cap for any single delay
	JitterFactor float64       // 0.2 means ±20%
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		JitterFactor: 0.2,
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt < 1 {
		return 0
	}
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.JitterFactor > 0 {
		delay += delay * p.JitterFactor * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Options configures an Orchestrator.
type Options struct {
	Concurrency   int
	Retry         RetryPolicy
	FetchTimeout  time.Duration // per fetch attempt, 0 disables
	SubmitTimeout time.Duration // per submit attempt, 0 disables
	RateLimit     float64       // attempts started per second across the orchestrator, 0 disables
	Observer      Observer
	Logger        *log.Logger
}

// OptionsFromConfig maps the application config onto orchestrator options.
func OptionsFromConfig(cfg types.AppConfig) Options {
	retry := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		retry.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		retry.MaxDelay = cfg.MaxDelay
	}
	return Options{
		Concurrency:   cfg.Concurrency,
		Retry:         retry,
		FetchTimeout:  cfg.FetchTimeout,
		SubmitTimeout: cfg.SubmitTimeout,
		RateLimit:     cfg.RateLimit,
	}
}
