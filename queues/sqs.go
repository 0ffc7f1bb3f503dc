// Package queues provides an SQS adapter for sending, receiving and deleting messages.
package queues

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/solita/awsutils/core"
	"github.com/solita/awsutils/metrics"
)

// sqsAPI is the subset of SQS operations the adapter uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var (
	_ core.MessageSource = (*SQS)(nil)
	_ core.MessageSink   = (*SQS)(nil)
	_ sqsAPI             = (*sqs.Client)(nil)
)

type Config struct {
	// MaxMessages per receive, 1 to 10.
	MaxMessages int32
	// WaitTimeSeconds enables long polling when above zero. Max is 20 seconds.
	WaitTimeSeconds int32
}

func ConfigDefaults() Config {
	return Config{
		MaxMessages: 10,
	}
}

type SQS struct {
	client  sqsAPI
	config  Config
	lock    sync.Locker
	metrics metrics.Collector
	logger  *slog.Logger
}

// NewSQS creates the adapter. Every SQS call holds lock; pass the same lock to
// all adapters that must not run calls concurrently. A nil lock gets a private one.
// collector may be nil.
func NewSQS(cfg aws.Config, sqsConfig Config, lock sync.Locker, collector metrics.Collector, logger *slog.Logger) *SQS {
	q := newSQS(sqs.NewFromConfig(cfg), sqsConfig, lock, logger)
	q.metrics = collector
	return q
}

func newSQS(client sqsAPI, sqsConfig Config, lock sync.Locker, logger *slog.Logger) *SQS {
	if logger == nil {
		logger = slog.Default()
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}

	defaults := ConfigDefaults()
	if sqsConfig.MaxMessages < 1 {
		sqsConfig.MaxMessages = defaults.MaxMessages
	}
	if sqsConfig.MaxMessages > 10 {
		sqsConfig.MaxMessages = 10
	}
	if sqsConfig.WaitTimeSeconds < 0 {
		sqsConfig.WaitTimeSeconds = 0
	}
	if sqsConfig.WaitTimeSeconds > 20 {
		sqsConfig.WaitTimeSeconds = 20
	}

	return &SQS{
		client: client,
		config: sqsConfig,
		lock:   lock,
		logger: logger.With("component", "sqs"),
	}
}

// Unlocked returns a view of q that shares its client but skips the lock. It is
// meant for a core.Drainer that already holds the same lock for the whole drain.
func (q *SQS) Unlocked() *SQS {
	view := *q
	view.lock = noLock{}
	return &view
}

// Send enqueues body and returns the message ID assigned by SQS. FIFO queues get
// a fresh deduplication ID, and a generated group ID when groupID is empty.
func (q *SQS) Send(ctx context.Context, queueURL, body, groupID string) (string, error) {
	start := time.Now()
	id, err := q.send(ctx, queueURL, body, groupID)
	if q.metrics != nil {
		if err != nil {
			q.metrics.SendError()
		} else {
			q.metrics.SendSuccess(time.Since(start).Milliseconds())
		}
	}
	return id, err
}

func (q *SQS) send(ctx context.Context, queueURL, body, groupID string) (string, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(body),
	}
	if groupID != "" {
		input.MessageGroupId = aws.String(groupID)
	}
	if isFIFO(queueURL) {
		if groupID == "" {
			input.MessageGroupId = aws.String(uuid.New().String())
		}
		input.MessageDeduplicationId = aws.String(uuid.New().String())
	}

	result, err := q.client.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if result.MessageId == nil || *result.MessageId == "" {
		return "", core.ErrNotSent
	}

	q.logger.Debug("Sent message", "queue", queueURL, "id", *result.MessageId)
	return *result.MessageId, nil
}

func (q *SQS) ReceiveBatch(ctx context.Context, queueURL string) ([]core.Message, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	result, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: q.config.MaxMessages,
		WaitTimeSeconds:     q.config.WaitTimeSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	messages := make([]core.Message, 0, len(result.Messages))
	for _, msg := range result.Messages {
		if msg.ReceiptHandle == nil || msg.Body == nil {
			continue
		}
		messages = append(messages, core.Message{
			ID:            aws.ToString(msg.MessageId),
			ReceiptHandle: *msg.ReceiptHandle,
			Body:          *msg.Body,
		})
	}

	q.logger.Debug("Received messages", "queue", queueURL, "count", len(messages))
	return messages, nil
}

func (q *SQS) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

func isFIFO(queueURL string) bool {
	return strings.HasSuffix(queueURL, ".fifo")
}
