package cache

import (
	"path/filepath"
	"testing"

	"github.com/imrishuroy/go-qrscan/internal/aws"
)

func TestOpen_Schemes(t *testing.T) {
	b, err := Open("redis://localhost:6379/0", nil)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	if _, ok := b.(*RedisBackend); !ok {
		t.Fatalf("expected *RedisBackend, got %T", b)
	}
	b.Close()

	b, err = Open("dynamodb://scan-cache", &aws.AWSClients{DynamoDB: newMockDynamo()})
	if err != nil {
		t.Fatalf("dynamodb: %v", err)
	}
	if d, ok := b.(*DynamoBackend); !ok || d.tableName != "scan-cache" {
		t.Fatalf("expected dynamo backend for scan-cache, got %T", b)
	}

	path := filepath.Join(t.TempDir(), "cache.db")
	b, err = Open("bolt://"+path, nil)
	if err != nil {
		t.Fatalf("bolt: %v", err)
	}
	if _, ok := b.(*BoltBackend); !ok {
		t.Fatalf("expected *BoltBackend, got %T", b)
	}
	b.Close()
}

func TestOpen_Errors(t *testing.T) {
	cases := []string{
		"memcached://localhost:11211",
		"dynamodb://scan-cache", // no clients
		"dynamodb://",
		"bolt://",
		"::not a url",
	}
	for _, c := range cases {
		if _, err := Open(c, nil); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}
