package deploy

import (
	"time"

	"go.uber.org/zap"
)

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorConfig)

// executorConfig holds configuration for Executor.Run.
type executorConfig struct {
	logger        *zap.Logger
	confirmations uint64
	waitTimeout   time.Duration
	pollInterval  time.Duration
	verifyCode    bool
	gasReport     *GasReport
}

// defaultExecutorConfig returns the default executor configuration.
func defaultExecutorConfig() *executorConfig {
	return &executorConfig{
		logger:        zap.NewNop(),
		confirmations: 1,
		waitTimeout:   5 * time.Minute,
		pollInterval:  time.Second,
		verifyCode:    true,
	}
}

// WithLogger sets the logger used for per-step progress.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(c *executorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConfirmations sets how many blocks (including the inclusion block)
// must exist before a step counts as mined. Default is 1.
func WithConfirmations(n uint64) ExecutorOption {
	return func(c *executorConfig) {
		if n == 0 {
			n = 1
		}
		c.confirmations = n
	}
}

// WithWaitTimeout bounds how long a single step may wait for its receipt.
// Default is 5 minutes.
func WithWaitTimeout(d time.Duration) ExecutorOption {
	return func(c *executorConfig) {
		c.waitTimeout = d
	}
}

// WithPollInterval sets the block polling interval used while waiting for confirmations.
func WithPollInterval(d time.Duration) ExecutorOption {
	return func(c *executorConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithCodeVerification enables or disables the post-run check that every
// deployment has code. Enabled by default.
func WithCodeVerification(enabled bool) ExecutorOption {
	return func(c *executorConfig) {
		c.verifyCode = enabled
	}
}

// WithGasReport records gas usage of every step into report.
func WithGasReport(report *GasReport) ExecutorOption {
	return func(c *executorConfig) {
		c.gasReport = report
	}
}
