package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ReplayPublisher enqueues ledger payloads that could not be delivered so the
// worker can retry them later.
type ReplayPublisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewReplayPublisher returns a publisher bound to a queue URL.
func NewReplayPublisher(sqsClient SQSAPI, queueURL string) *ReplayPublisher {
	return &ReplayPublisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Publish sends a replay message. body should be a JSON string.
// attributes are sent as SQS MessageAttributes.
func (p *ReplayPublisher) Publish(ctx context.Context, body string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &body,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: &v,
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
