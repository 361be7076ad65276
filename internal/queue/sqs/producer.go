package sqsqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"waphone/internal/domain"
	"waphone/internal/util"
)

// API is the subset of *sqs.Client used here.
type API interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

const defaultGroupBuckets = 64

type Producer struct {
	SQS      API
	QueueURL string
	// GroupBuckets bounds the number of FIFO message groups.
	GroupBuckets int
}

// EnqueueOrderEvent publishes ev and returns its event id. On FIFO queues all
// events of one order share a message group, so they are handled in order.
func (p *Producer) EnqueueOrderEvent(ctx context.Context, ev domain.OrderStatusEvent) (string, error) {
	if ev.EventID == "" {
		ev.EventID = util.NewEventID()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: str(string(body)),
	}
	if strings.HasSuffix(p.QueueURL, ".fifo") {
		in.MessageGroupId = str(messageGroupIDBucketed("order", ev.OrderID, p.GroupBuckets))
		in.MessageDeduplicationId = str(ev.EventID)
	}
	if _, err := p.SQS.SendMessage(ctx, in); err != nil {
		return "", err
	}
	return ev.EventID, nil
}

func messageGroupIDBucketed(prefix, key string, buckets int) string {
	if buckets <= 0 {
		buckets = defaultGroupBuckets
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%s:%d", prefix, h.Sum32()%uint32(buckets))
}

func str(s string) *string { return &s }
