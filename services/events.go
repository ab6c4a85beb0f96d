package services

import (
	"context"
	"encoding/json"

	aws_pkg "orderpro/pkg/aws"

	"go.uber.org/zap"
)

// EventPublisher emits domain events. Publishing is best-effort: failures
// are logged and never reach the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event any)
}

// SNSEventPublisher publishes JSON events to a single SNS topic.
type SNSEventPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
	logger   *zap.Logger
}

func NewSNSEventPublisher(client aws_pkg.SNSPublisher, topicArn string, logger *zap.Logger) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn, logger: logger}
}

func (p *SNSEventPublisher) Publish(ctx context.Context, event any) {
	if p.client == nil || p.topicArn == "" {
		p.logger.Debug("SNS not configured, skipping event publish")
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal SNS event", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, p.topicArn, b); err != nil {
		p.logger.Error("Failed to publish SNS event", zap.Error(err))
		return
	}
	p.logger.Debug("Published SNS event", zap.String("topic", p.topicArn))
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, any) {}
