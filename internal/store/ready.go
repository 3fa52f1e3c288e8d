package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrStoreUnreachable is returned by WaitReady once every attempt has failed.
var ErrStoreUnreachable = errors.New("could not connect to database")

// fallbackAttemptTimeout caps one attempt when neither AttemptTimeout nor Delay is set.
const fallbackAttemptTimeout = 5 * time.Second

// RetryPolicy bounds the startup gate. The delay is fixed between attempts.
// AttemptTimeout caps a single ping; zero means Delay.
type RetryPolicy struct {
	Attempts       int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy waits up to 15 * 2s for the database.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 15, Delay: 2 * time.Second, AttemptTimeout: 2 * time.Second}
}

func (p RetryPolicy) attemptTimeout() time.Duration {
	switch {
	case p.AttemptTimeout > 0:
		return p.AttemptTimeout
	case p.Delay > 0:
		return p.Delay
	default:
		return fallbackAttemptTimeout
	}
}

// pingOnce runs one ping bounded by timeout so a silent host cannot stall the gate.
func pingOnce(ctx context.Context, p Pinger, timeout time.Duration) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ping(attemptCtx)
}

// WaitReady pings p until it answers or the policy is exhausted.
// It returns immediately on the first successful ping.
func WaitReady(ctx context.Context, p Pinger, policy RetryPolicy, logger *zerolog.Logger) error {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}

	timeout := policy.attemptTimeout()

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		lastErr = pingOnce(ctx, p, timeout)
		if lastErr == nil {
			logger.Info().Int("attempt", attempt).Msg("database reachable")
			return nil
		}

		logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("attempts", policy.Attempts).
			Dur("retry_in", policy.Delay).
			Msg("database not ready yet")

		// no point sleeping after the final attempt
		if attempt == policy.Attempts {
			break
		}

		timer := time.NewTimer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrStoreUnreachable, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrStoreUnreachable, policy.Attempts, lastErr)
}
