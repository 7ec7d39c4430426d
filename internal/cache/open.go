package cache

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/imrishuroy/go-qrscan/internal/aws"
)

// Open builds the backend named by rawURL:
//
//	redis://host:6379/0, rediss://...   Redis
//	dynamodb://table-name               DynamoDB (requires clients)
//	bolt:///var/lib/qrscan/cache.db     local BoltDB file
func Open(rawURL string, clients *aws.AWSClients) (Backend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		return OpenRedis(rawURL)
	case "dynamodb":
		if clients == nil || clients.DynamoDB == nil {
			return nil, fmt.Errorf("dynamodb cache requires aws clients")
		}
		if u.Host == "" {
			return nil, fmt.Errorf("dynamodb cache url needs a table name")
		}
		return NewDynamoBackend(clients.DynamoDB, u.Host), nil
	case "bolt":
		path := u.Host + u.Path
		if path == "" {
			return nil, fmt.Errorf("bolt cache url needs a path")
		}
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unsupported cache scheme %q", u.Scheme)
	}
}
