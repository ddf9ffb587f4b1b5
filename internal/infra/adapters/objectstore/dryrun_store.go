package objectstore

import (
	"context"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.ObjectStore = (*DryRunStore)(nil)

// DryRunStore logs writes instead of performing them and lists nothing.
type DryRunStore struct {
	log *zerolog.Logger
}

func NewDryRunStore(logger *zerolog.Logger) *DryRunStore {
	return &DryRunStore{log: logger}
}

func (d *DryRunStore) PutObject(ctx context.Context, in adapter.PutObjectInput) error {
	d.log.Info().
		Str("key", in.Key).
		Int("bytes", len(in.Body)).
		Interface("metadata", in.Metadata).
		Msg("[dry-run] archive write skipped")
	return nil
}

func (d *DryRunStore) ListObjects(ctx context.Context, prefix, token string) (adapter.ObjectPage, error) {
	return adapter.ObjectPage{}, nil
}
