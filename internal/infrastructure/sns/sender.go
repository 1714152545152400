package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Publisher fans admin alerts out to an SNS topic.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

// publishAPI is the slice of the SNS client the publisher uses.
type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type topicPublisher struct {
	client   publishAPI
	topicARN string
}

// NewPublisher returns a Publisher for topicARN. With an empty ARN it returns
// a no-op publisher so deployments without a topic keep working.
func NewPublisher(awsCfg aws.Config, topicARN string) Publisher {
	if topicARN == "" {
		return noop{}
	}
	return &topicPublisher{client: sns.NewFromConfig(awsCfg), topicARN: topicARN}
}

func (p *topicPublisher) Publish(ctx context.Context, subject, message string) error {
	in := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(message),
	}
	if subject != "" {
		// SNS rejects subjects over 100 characters.
		if len(subject) > 100 {
			subject = subject[:100]
		}
		in.Subject = aws.String(subject)
	}
	if _, err := p.client.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

type noop struct{}

func (noop) Publish(context.Context, string, string) error { return nil }
