package attestation

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/cctp-courier/pkg/logger"
	"github.com/custodia-labs/cctp-courier/pkg/metrics"
)

const (
	// DefaultInterval is the fixed wait between poll attempts.
	DefaultInterval = 5 * time.Second

	// progressEvery controls how often the poller logs a progress line.
	progressEvery = 12
)

// Oracle is the single capability the poller needs. *Client implements it;
// tests use fakes.
type Oracle interface {
	GetMessages(ctx context.Context, sourceDomain uint32, txHash string) ([]MessageStatus, error)
}

var _ Oracle = (*Client)(nil)

// Poller drives a fixed-interval poll loop against the oracle. Timeouts are
// attempt-counted, not wall-clock, so behavior is deterministic under test.
type Poller struct {
	oracle   Oracle
	interval time.Duration
	logger   *logger.Logger

	// sleep is swapped in tests to make the loop instantaneous.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller with the given attempt interval. A zero
// interval selects DefaultInterval.
func NewPoller(oracle Oracle, interval time.Duration, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		oracle:   oracle,
		interval: interval,
		logger:   log,
		sleep:    sleepContext,
	}
}

// Poll queries the oracle until a ready attestation appears or maxAttempts
// is exhausted. Transient failures (network errors, empty responses, entries
// still pending) are swallowed and each costs one attempt. Cancellation is
// honored between attempts, never mid-call.
func (p *Poller) Poll(ctx context.Context, sourceDomain uint32, txHash string, maxAttempts int) (*Attestation, error) {
	start := time.Now()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.interval); err != nil {
				return nil, fmt.Errorf("polling canceled for tx %s: %w", txHash, err)
			}
		}

		messages, err := p.oracle.GetMessages(ctx, sourceDomain, txHash)
		if err != nil {
			p.logger.Debug("attestation not available yet",
				"tx_hash", txHash, "attempt", attempt, "error", err)
		} else {
			for _, m := range messages {
				if !m.Ready() {
					continue
				}
				elapsed := time.Since(start).Round(time.Second)
				metrics.AttestationPollAttempts.Observe(float64(attempt))
				p.logger.Info("attestation ready",
					"tx_hash", txHash, "attempts", attempt, "elapsed", elapsed.String())
				return &Attestation{Message: m.Message, Attestation: m.Attestation}, nil
			}
		}

		if attempt%progressEvery == 0 {
			p.logger.Info("still waiting for attestation",
				"tx_hash", txHash,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"elapsed", time.Since(start).Round(time.Second).String())
		}
	}

	elapsed := time.Since(start).Round(time.Second)
	return nil, fmt.Errorf("attestation for tx %s not ready after %d attempts (%s): %w",
		txHash, maxAttempts, elapsed, ErrTimeout)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
