package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-qrscan/internal/aws"
)

// dynamoEntry is the item shape in the cache table. expires_at doubles as the
// table's TTL attribute.
type dynamoEntry struct {
	CacheKey  string    `dynamodbav:"cache_key"` // PK
	Payload   string    `dynamodbav:"payload"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// DynamoBackend keeps entries in a DynamoDB table keyed by cache_key.
type DynamoBackend struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoBackend returns a backend bound to tableName.
func NewDynamoBackend(client aws.DynamoDBAPI, tableName string) *DynamoBackend {
	return &DynamoBackend{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get reads key with a consistent read. Items past expires_at are treated as
// missing because DynamoDB removes expired items lazily.
func (b *DynamoBackend) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &b.tableName,
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: sdkaws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrMiss
	}

	var e dynamoEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if b.nowFunc().Unix() >= e.ExpiresAt {
		return nil, ErrMiss
	}
	return []byte(e.Payload), nil
}

// Set overwrites key unconditionally; the last writer wins.
func (b *DynamoBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := b.nowFunc()
	item, err := attributevalue.MarshalMap(dynamoEntry{
		CacheKey:  key,
		Payload:   string(value),
		ExpiresAt: now.Add(ttl).Unix(),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &b.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Ping checks that the table exists and is reachable.
func (b *DynamoBackend) Ping(ctx context.Context) error {
	_, err := b.client.DescribeTable(ctx, &dyn.DescribeTableInput{TableName: &b.tableName})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ResourceNotFoundException" {
			return fmt.Errorf("cache table %q does not exist: %w", b.tableName, err)
		}
		return fmt.Errorf("describe table: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no connection state of its own.
func (b *DynamoBackend) Close() error { return nil }
