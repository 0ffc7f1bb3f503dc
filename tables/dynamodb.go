// Package tables provides a DynamoDB adapter for single-item put, get and delete.
package tables

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/solita/awsutils/core"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var (
	_ core.KeyValueTable = (*DynamoDB)(nil)
	_ dynamoAPI          = (*dynamodb.Client)(nil)
)

// DynamoDB works on tables keyed by a single string partition key.
type DynamoDB struct {
	client dynamoAPI
	lock   sync.Locker
	logger *slog.Logger
}

// NewDynamoDB creates the adapter. Every DynamoDB call holds lock, the same way
// queues.SQS does.
func NewDynamoDB(cfg aws.Config, lock sync.Locker, logger *slog.Logger) *DynamoDB {
	return newDynamoDB(dynamodb.NewFromConfig(cfg), lock, logger)
}

func newDynamoDB(client dynamoAPI, lock sync.Locker, logger *slog.Logger) *DynamoDB {
	if logger == nil {
		logger = slog.Default()
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &DynamoDB{
		client: client,
		lock:   lock,
		logger: logger.With("component", "dynamodb"),
	}
}

// Put writes attrs plus the key attribute as one item, replacing any existing
// item with the same key. A key present in attrs is overridden by keyValue.
func (d *DynamoDB) Put(ctx context.Context, table, key, keyValue string, attrs map[string]any) error {
	item := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		item[k] = v
	}
	item[key] = keyValue

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to serialize item: %w", err)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in %s: %w", table, err)
	}
	d.logger.Debug("Stored item", "table", table, "key", key, "value", keyValue)
	return nil
}

func (d *DynamoDB) Get(ctx context.Context, table, key, keyValue string) (core.Item, bool, error) {
	d.lock.Lock()
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       keyOf(key, keyValue),
	})
	d.lock.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item from %s: %w", table, err)
	}
	if len(result.Item) == 0 {
		return nil, false, nil
	}

	item := core.Item{}
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to deserialize item: %w", err)
	}
	return item, true, nil
}

// Delete removes the item. Deleting a key that does not exist is not an error.
func (d *DynamoDB) Delete(ctx context.Context, table, key, keyValue string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       keyOf(key, keyValue),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from %s: %w", table, err)
	}
	d.logger.Debug("Deleted item", "table", table, "key", key, "value", keyValue)
	return nil
}

func keyOf(key, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		key: &types.AttributeValueMemberS{Value: value},
	}
}
