package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
)

const archiveContentType = "application/json"

// ArchiveStore writes summary records into the archive namespace.
type ArchiveStore struct {
	store adapter.ObjectStore
	now   func() time.Time
	log   *zerolog.Logger
}

func NewArchiveStore(store adapter.ObjectStore, logger *zerolog.Logger) *ArchiveStore {
	l := logger.With().Str("component", "ArchiveStore").Logger()
	return &ArchiveStore{store: store, now: time.Now, log: &l}
}

// Key is the archive key rec would be written under right now.
func (a *ArchiveStore) Key(rec *model.SummaryRecord, displayID string) string {
	return model.ArchiveKey(rec.Category, rec.Service, a.now(), displayID)
}

// Put serializes rec and writes it unconditionally; an existing object at the
// same key is overwritten.
func (a *ArchiveStore) Put(ctx context.Context, rec *model.SummaryRecord, displayID string) (string, error) {
	key := a.Key(rec, displayID)

	body, err := encodeRecord(rec)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", domain.ErrArchiveWrite, key, err)
	}

	err = a.store.PutObject(ctx, adapter.PutObjectInput{
		Key:         key,
		Body:        body,
		ContentType: archiveContentType,
		Metadata: map[string]string{
			"case-id":    rec.CaseID,
			"display-id": displayID,
			"category":   rec.Category,
			"service":    rec.Service,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %w", domain.ErrArchiveWrite, key, err)
	}
	a.log.Info().Str("display_id", displayID).Str("key", key).Int("bytes", len(body)).Msg("summary archived")
	return key, nil
}

// encodeRecord renders rec as indented UTF-8 JSON without HTML escaping.
func encodeRecord(rec *model.SummaryRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
