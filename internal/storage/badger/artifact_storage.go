package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
	"github.com/voclabs/vocero/internal/interfaces"
)

// artifactRecord is one stored blob with minimal metadata.
type artifactRecord struct {
	Key         string    `json:"key"`
	Data        []byte    `json:"data"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArtifactStorage is the durable keyed blob store for final job outputs.
// It stands in for object storage; the contract is plain key -> blob.
type ArtifactStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArtifactStorage creates a new ArtifactStorage instance
func NewArtifactStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArtifactStorage {
	return &ArtifactStorage{
		db:     db,
		logger: logger,
	}
}

// Put stores or replaces the blob at key.
func (s *ArtifactStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	record := artifactRecord{
		Key:         key,
		Data:        data,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.Store().Upsert(key, &record); err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", key, err)
	}

	s.logger.Debug().
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Artifact stored")

	return nil
}

// Get returns the blob at key, or ErrArtifactNotFound.
func (s *ArtifactStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var record artifactRecord
	err := s.db.Store().Get(key, &record)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact %s: %w", key, err)
	}
	return record.Data, nil
}

// Delete removes the blob at key.
func (s *ArtifactStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(key, &artifactRecord{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	return nil
}
