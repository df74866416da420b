// Package pub delivers channel events to subscribers.
package pub

import (
	"context"
	"dbuilder/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// API is the part of the SNS client used here.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNS struct{ cli API }

func NewSNS(c API) *SNS { return &SNS{cli: c} }

func (s *SNS) PublishRaw(ctx context.Context, arn string, payload []byte) error {
	_, err := s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: &arn,
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"content-type": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
		},
	})
	if err != nil {
		return types.Err(types.ErrUpstream, err, "publish to %s", arn)
	}
	return nil
}

// Noop drops every event. It is used when no topic is configured.
type Noop struct{}

func (Noop) PublishRaw(context.Context, string, []byte) error { return nil }
