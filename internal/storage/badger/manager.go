package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
	"github.com/voclabs/vocero/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	jobs        interfaces.JobStorage
	checkpoints interfaces.CheckpointStorage
	artifacts   interfaces.ArtifactStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		jobs:        NewJobStorage(db, logger),
		checkpoints: NewCheckpointStorage(db, logger),
		artifacts:   NewArtifactStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// JobStorage returns the job status store
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.jobs
}

// CheckpointStorage returns the checkpoint store
func (m *Manager) CheckpointStorage() interfaces.CheckpointStorage {
	return m.checkpoints
}

// ArtifactStorage returns the artifact blob store
func (m *Manager) ArtifactStorage() interfaces.ArtifactStorage {
	return m.artifacts
}

// DB returns the underlying database connection for the queue manager.
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
