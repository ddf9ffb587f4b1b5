package adapter

import "context"

type PutObjectInput struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

type ObjectPage struct {
	Keys      []string
	NextToken string
}

// ObjectStore is the archive namespace.
type ObjectStore interface {
	PutObject(ctx context.Context, in PutObjectInput) error
	ListObjects(ctx context.Context, prefix, token string) (ObjectPage, error)
}
