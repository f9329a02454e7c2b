package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig configures attempts and linear backoff between them
type RetryConfig struct {
	MaxAttempts int           `koanf:"attempts"` // Total attempts including the first (default: 3)
	BaseDelay   time.Duration `koanf:"delay"`    // Delay unit; attempt n waits n*BaseDelay (default: 1s)
	MaxDelay    time.Duration `koanf:"maxdelay"` // Upper bound for a single wait, 0 means none
	LogRetries  bool          `koanf:"log"`      // Whether to log retry attempts (default: true)
}

// RetryResult contains information about the retry operation
type RetryResult struct {
	Attempts      int             `json:"attempts"`       // Total number of attempts made
	TotalDuration time.Duration   `json:"total_duration"` // Total time spent on all attempts
	LastError     error           `json:"-"`              // Last error encountered
	Success       bool            `json:"success"`        // Whether the operation eventually succeeded
	Terminal      bool            `json:"terminal"`       // Whether a non-retryable error stopped the loop
	RetryReasons  []string        `json:"retry_reasons"`  // Reasons for each failed attempt
	Delays        []time.Duration `json:"delays"`         // Waits taken between attempts
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// DefaultRetryConfig returns three attempts with a one second linear step
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		LogRetries:  true,
	}
}

// Retryer runs operations under a RetryConfig.
type Retryer struct {
	config    RetryConfig
	retryable func(error) bool
	sleep     Sleeper
}

// Option customises a Retryer.
type Option func(*Retryer)

// WithSleeper replaces the wall-clock wait between attempts.
func WithSleeper(s Sleeper) Option {
	return func(r *Retryer) { r.sleep = s }
}

// WithClassifier decides which errors may be retried; the default retries
// every error.
func WithClassifier(retryable func(error) bool) Option {
	return func(r *Retryer) { r.retryable = retryable }
}

// New creates a Retryer, filling zero config fields with defaults.
func New(config RetryConfig, opts ...Option) *Retryer {
	def := DefaultRetryConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.BaseDelay < 0 {
		config.BaseDelay = def.BaseDelay
	}
	r := &Retryer{
		config:    config,
		retryable: func(error) bool { return true },
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective configuration.
func (r *Retryer) Config() RetryConfig {
	return r.config
}

// Do executes operation until it succeeds, returns a non-retryable error,
// or the attempts are exhausted. The attempt number passed to operation
// starts at 1.
func (r *Retryer) Do(ctx context.Context, operation func(ctx context.Context, attempt int) error) RetryResult {
	startTime := time.Now()
	config := r.config

	result := RetryResult{
		RetryReasons: make([]string, 0, config.MaxAttempts),
	}

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if config.LogRetries {
			log.Debug().Int("attempt", attempt).Int("max_attempts", config.MaxAttempts).Msg("Starting attempt")
		}

		err := operation(ctx, attempt)
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries && attempt > 1 {
				log.Info().Int("attempts", attempt).Dur("total_duration", result.TotalDuration).Msg("Operation succeeded after retries")
			}
			return result
		}

		result.LastError = err
		result.RetryReasons = append(result.RetryReasons, err.Error())

		if !r.retryable(err) {
			result.Terminal = true
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries {
				log.Warn().Err(err).Int("attempt", attempt).Msg("Non-retryable failure")
			}
			return result
		}

		if attempt >= config.MaxAttempts {
			break
		}

		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			return result
		}

		delay := calculateDelay(config, attempt)
		result.Delays = append(result.Delays, delay)

		if config.LogRetries {
			log.Warn().Err(err).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Attempt failed, waiting before retry")
		}

		if err := r.sleep(ctx, delay); err != nil {
			result.LastError = err
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries {
				log.Debug().Err(err).Msg("Operation cancelled during backoff delay")
			}
			return result
		}
	}

	result.TotalDuration = time.Since(startTime)
	if config.LogRetries {
		log.Warn().Err(result.LastError).
			Int("attempts", result.Attempts).
			Dur("total_duration", result.TotalDuration).
			Msg("Operation failed after all attempts")
	}
	return result
}

// calculateDelay returns attempt * BaseDelay, capped at MaxDelay
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := config.BaseDelay * time.Duration(attempt)
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
