package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/infra/metrics"
)

var _ adapter.ObjectStore = (*S3Store)(nil)

// listPageSize is the S3 ListObjectsV2 maximum.
const listPageSize = 1000

// S3API is the part of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps archive records in one bucket.
type S3Store struct {
	api    S3API
	bucket string
	log    *zerolog.Logger
}

func NewS3Store(api S3API, bucket string, logger *zerolog.Logger) (*S3Store, error) {
	if api == nil {
		return nil, errors.New("s3: nil client")
	}
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	return &S3Store{api: api, bucket: bucket, log: logger}, nil
}

func (s *S3Store) PutObject(ctx context.Context, in adapter.PutObjectInput) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(in.Key),
		Body:        bytes.NewReader(in.Body),
		ContentType: aws.String(in.ContentType),
		Metadata:    in.Metadata,
	})
	metrics.IncArchiveWrite(err == nil)
	if err != nil {
		return fmt.Errorf("s3 put s3://%s/%s: %w", s.bucket, in.Key, err)
	}
	return nil
}

func (s *S3Store) ListObjects(ctx context.Context, prefix, token string) (adapter.ObjectPage, error) {
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(listPageSize),
	}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	if token != "" {
		in.ContinuationToken = aws.String(token)
	}
	out, err := s.api.ListObjectsV2(ctx, in)
	metrics.IncArchiveListPage(err == nil)
	if err != nil {
		return adapter.ObjectPage{}, fmt.Errorf("s3 list s3://%s/%s: %w", s.bucket, prefix, err)
	}
	page := adapter.ObjectPage{Keys: make([]string, 0, len(out.Contents))}
	for _, obj := range out.Contents {
		page.Keys = append(page.Keys, aws.ToString(obj.Key))
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}
