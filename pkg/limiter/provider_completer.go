// Package limiter decorates completers with request-rate limits so a
// runaway scheduler or chat client cannot exhaust a vendor quota.
package limiter

import (
	"context"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"

	"golang.org/x/time/rate"
)

type Completer interface {
	Limiter
	provider.Completer
}

type Limiter interface {
	limiterSetup()
}

type limitedCompleter struct {
	limiter  *rate.Limiter
	provider provider.Completer
}

func NewCompleter(l *rate.Limiter, p provider.Completer) Completer {
	return &limitedCompleter{
		limiter:  l,
		provider: p,
	}
}

func (p *limitedCompleter) limiterSetup() {
}

func (p *limitedCompleter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fault.Wrap(fault.KindNetwork, err, "rate limit wait cancelled")
		}
	}

	return p.provider.Complete(ctx, req)
}
