// Package roundrobin balances completions randomly across healthy
// providers, skipping those whose circuit is open.
package roundrobin

import (
	"context"
	"math/rand"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/router"
)

type Completer struct {
	completers []provider.Completer
	stats      []*router.ProviderStats

	failureThreshold int
	recoveryTimeout  time.Duration
}

func NewCompleter(completers ...provider.Completer) (provider.Completer, error) {
	if len(completers) == 0 {
		return nil, fault.Configuration("at least one completer is required")
	}

	stats := make([]*router.ProviderStats, len(completers))

	for i := range stats {
		stats[i] = router.NewProviderStats()
	}

	return &Completer{
		completers: completers,
		stats:      stats,

		failureThreshold: router.DefaultFailureThreshold,
		recoveryTimeout:  router.DefaultRecoveryTimeout,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	index := c.selectProvider()

	start := time.Now()

	resp, err := c.completers[index].Complete(ctx, req)

	if err != nil {
		c.stats[index].RecordFailure(c.failureThreshold)
		return nil, err
	}

	c.stats[index].RecordSuccess(time.Since(start))

	return resp, nil
}

// selectProvider picks randomly among providers whose circuit is not open.
func (c *Completer) selectProvider() int {
	candidates := make([]int, 0, len(c.completers))

	for i, stat := range c.stats {
		if stat.IsAvailable(c.recoveryTimeout) {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		return c.fallbackProvider()
	}

	return candidates[rand.Intn(len(candidates))]
}

// fallbackProvider returns the least recently failed provider when every
// circuit is open, moving it to half-open for the probe.
func (c *Completer) fallbackProvider() int {
	bestIndex := 0

	var oldestFailure time.Time

	for i, stat := range c.stats {
		lastFailure := stat.LastFailure()

		if i == 0 || lastFailure.Before(oldestFailure) {
			oldestFailure = lastFailure
			bestIndex = i
		}
	}

	c.stats[bestIndex].SetHalfOpen()

	return bestIndex
}
