package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/domain/ports/repository"
)

// DuplicateChecker reports whether a display id has already been archived.
// Implementations never fail; lookup errors count as "not archived".
type DuplicateChecker interface {
	Exists(ctx context.Context, displayID string) bool
}

var (
	_ DuplicateChecker = (*ScanDuplicateChecker)(nil)
	_ DuplicateChecker = (*IndexedDuplicateChecker)(nil)
)

// ScanDuplicateChecker lists the whole archive namespace and matches the
// "/{display_id}.json" key suffix. Cost grows with the archive size.
type ScanDuplicateChecker struct {
	store adapter.ObjectStore
	log   *zerolog.Logger
}

func NewScanDuplicateChecker(store adapter.ObjectStore, logger *zerolog.Logger) *ScanDuplicateChecker {
	l := logger.With().Str("component", "ScanDuplicateChecker").Logger()
	return &ScanDuplicateChecker{store: store, log: &l}
}

func (c *ScanDuplicateChecker) Exists(ctx context.Context, displayID string) bool {
	suffix := model.ArchiveSuffix(displayID)
	var token string
	scanned := 0
	for {
		page, err := c.store.ListObjects(ctx, "", token)
		if err != nil {
			c.log.Error().Err(err).Str("display_id", displayID).Int("scanned", scanned).
				Msg("archive listing failed; treating ticket as not archived")
			return false
		}
		for _, key := range page.Keys {
			if strings.HasSuffix(key, suffix) {
				c.log.Debug().Str("display_id", displayID).Str("key", key).Msg("archive found")
				return true
			}
		}
		scanned += len(page.Keys)
		if page.NextToken == "" {
			return false
		}
		token = page.NextToken
	}
}

// IndexedDuplicateChecker answers from the archive index and falls back to a
// full scan when the index cannot be queried.
type IndexedDuplicateChecker struct {
	index    repository.ArchiveIndexRepository
	fallback DuplicateChecker
	log      *zerolog.Logger
}

func NewIndexedDuplicateChecker(index repository.ArchiveIndexRepository, fallback DuplicateChecker, logger *zerolog.Logger) *IndexedDuplicateChecker {
	l := logger.With().Str("component", "IndexedDuplicateChecker").Logger()
	return &IndexedDuplicateChecker{index: index, fallback: fallback, log: &l}
}

func (c *IndexedDuplicateChecker) Exists(ctx context.Context, displayID string) bool {
	ok, err := c.index.Exists(ctx, displayID)
	if err == nil {
		return ok
	}
	c.log.Warn().Err(err).Str("display_id", displayID).Msg("archive index lookup failed; scanning namespace")
	if c.fallback == nil {
		return false
	}
	return c.fallback.Exists(ctx, displayID)
}
