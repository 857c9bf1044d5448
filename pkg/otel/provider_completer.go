package otel

import (
	"context"
	"time"

	"github.com/relaygw/relay/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Observable marks decorators built by this package.
type Observable interface {
	otelSetup()
}

type Completer interface {
	Observable
	provider.Completer
}

type observableCompleter struct {
	model    string
	provider string

	completer provider.Completer

	tokenUsageMetric        metric.Int64Counter
	operationDurationMetric metric.Float64Histogram
}

func NewCompleter(provider, model string, p provider.Completer) Completer {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := meter.Int64Counter("gen_ai.client.token.usage")
	operationDurationMetric, _ := meter.Float64Histogram("gen_ai.client.operation.duration", metric.WithUnit("s"))

	return &observableCompleter{
		completer: p,

		model:    model,
		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableCompleter) otelSetup() {
}

func (p *observableCompleter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "chat "+p.model)
	defer span.End()

	timestamp := time.Now()

	result, err := p.completer.Complete(ctx, req)

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	duration := time.Since(timestamp).Seconds()

	model := p.model

	if result.Model != "" {
		model = result.Model
	}

	attrs := metric.WithAttributes(
		attribute.String("gen_ai.provider.name", p.provider),
		attribute.String("gen_ai.request.model", p.model),
		attribute.String("gen_ai.response.model", model),
	)

	p.operationDurationMetric.Record(ctx, duration, attrs)

	if result.Usage != nil {
		if result.Usage.InputTokens > 0 {
			p.tokenUsageMetric.Add(ctx, int64(result.Usage.InputTokens), attrs,
				metric.WithAttributes(attribute.String("gen_ai.token.type", "input")))
		}

		if result.Usage.OutputTokens > 0 {
			p.tokenUsageMetric.Add(ctx, int64(result.Usage.OutputTokens), attrs,
				metric.WithAttributes(attribute.String("gen_ai.token.type", "output")))
		}
	}

	return result, nil
}
