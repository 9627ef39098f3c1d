// -----------------------------------------------------------------------
// Queue Manager - persistent at-least-once queue on BadgerDB
// -----------------------------------------------------------------------

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// envelope wraps a queue message with delivery bookkeeping.
type envelope struct {
	ID           string              `json:"id"`
	Body         models.QueueMessage `json:"body"`
	EnqueuedAt   time.Time           `json:"enqueued_at"`
	VisibleAt    time.Time           `json:"visible_at"`
	ReceiveCount int                 `json:"receive_count"`
}

// Manager implements an at-least-once queue with visibility timeouts on
// BadgerDB. A received message stays invisible for the visibility timeout;
// unless acknowledged it becomes visible again and is redelivered. Messages
// delivered more than maxReceive times are dropped as poison - this bounds
// redelivery of payloads that can never be handled (including ones that
// never decode).
type Manager struct {
	db                *badgerdb.DB
	queueName         string
	visibilityTimeout time.Duration
	maxReceive        int
	logger            arbor.ILogger
}

// Compile-time assertion: Manager implements QueueManager
var _ interfaces.QueueManager = (*Manager)(nil)

// NewManager creates a new queue manager on an open Badger handle.
func NewManager(db *badgerdb.DB, queueName string, visibilityTimeout time.Duration, maxReceive int, logger arbor.ILogger) (*Manager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if queueName == "" {
		return nil, errors.New("queue name is required")
	}
	if visibilityTimeout <= 0 {
		visibilityTimeout = 5 * time.Minute
	}
	if maxReceive <= 0 {
		maxReceive = 3
	}

	return &Manager{
		db:                db,
		queueName:         queueName,
		visibilityTimeout: visibilityTimeout,
		maxReceive:        maxReceive,
		logger:            logger,
	}, nil
}

// Enqueue adds a message to the queue, immediately visible.
func (m *Manager) Enqueue(ctx context.Context, msg *models.QueueMessage) error {
	id := uuid.New().String()
	now := time.Now()

	env := envelope{
		ID:         id,
		Body:       *msg,
		EnqueuedAt: now,
		VisibleAt:  now,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal queue envelope: %w", err)
	}

	// Message data lives at msg:{id}; a separate visibility index key
	// index:{visibleAt}:{id} keeps ready messages scannable in order.
	err = m.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(m.msgKey(id), data); err != nil {
			return err
		}
		return txn.Set(m.indexKey(env.VisibleAt, id), []byte{})
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}

	m.logger.Debug().
		Str("message_id", id).
		Str("job_id", msg.JobID).
		Str("kind", string(msg.Kind)).
		Msg("Message enqueued")

	return nil
}

// Receive pulls the next visible message and makes it invisible for the
// visibility timeout. The returned acknowledge function deletes the message;
// if it is never called the message is redelivered after the timeout.
func (m *Manager) Receive(ctx context.Context) (*models.QueueMessage, func() error, error) {
	var env envelope
	var msgID string

	err := m.db.Update(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", m.queueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		var oldIndexKey []byte
		found := false

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)

			ts, id, err := m.parseIndexKey(key)
			if err != nil {
				continue
			}

			// Index keys sort by timestamp; the first future entry means
			// nothing later is ready either.
			if ts.After(now) {
				break
			}

			item, err := txn.Get(m.msgKey(id))
			if err != nil {
				if err == badgerdb.ErrKeyNotFound {
					// Orphaned index entry; clean it up and keep scanning.
					if err := txn.Delete(key); err != nil {
						return err
					}
					continue
				}
				return err
			}

			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return err
			}

			if env.ReceiveCount >= m.maxReceive {
				m.logger.Warn().
					Str("message_id", id).
					Str("job_id", env.Body.JobID).
					Int("receive_count", env.ReceiveCount).
					Msg("Dropping poison message after max receives")
				if err := txn.Delete(key); err != nil {
					return err
				}
				if err := txn.Delete(m.msgKey(id)); err != nil {
					return err
				}
				continue
			}

			found = true
			msgID = id
			oldIndexKey = key
			break
		}

		if !found {
			return models.ErrNoMessage
		}

		// Claim: bump receive count and push visibility out.
		env.ReceiveCount++
		env.VisibleAt = time.Now().Add(m.visibilityTimeout)

		newData, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(msgID), newData); err != nil {
			return err
		}
		if err := txn.Delete(oldIndexKey); err != nil {
			return err
		}
		return txn.Set(m.indexKey(env.VisibleAt, msgID), []byte{})
	})

	if err != nil {
		return nil, nil, err
	}

	ack := func() error {
		return m.delete(msgID)
	}

	return &env.Body, ack, nil
}

// delete removes a message and its current index entry.
func (m *Manager) delete(msgID string) error {
	return m.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(m.msgKey(msgID))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return nil // Already deleted
			}
			return err
		}

		var current envelope
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &current)
		}); err != nil {
			return err
		}

		if err := txn.Delete(m.indexKey(current.VisibleAt, msgID)); err != nil && err != badgerdb.ErrKeyNotFound {
			return err
		}
		return txn.Delete(m.msgKey(msgID))
	})
}

// Close closes the queue manager. The Badger handle is owned by the
// storage manager, so this is a no-op.
func (m *Manager) Close() error {
	return nil
}

func (m *Manager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.queueName, id))
}

func (m *Manager) indexKey(visibleAt time.Time, id string) []byte {
	// Zero pad to 20 digits so lexicographic order matches numeric order.
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.queueName, visibleAt.UnixNano(), id))
}

func (m *Manager) parseIndexKey(key []byte) (time.Time, string, error) {
	prefix := fmt.Sprintf("queue:%s:index:", m.queueName)
	if len(key) <= len(prefix) {
		return time.Time{}, "", fmt.Errorf("invalid index key length")
	}

	suffix := string(key[len(prefix):])
	if len(suffix) < 22 { // 20 digits + colon + at least one id char
		return time.Time{}, "", fmt.Errorf("invalid index key suffix")
	}

	var ts int64
	if _, err := fmt.Sscanf(suffix[:20], "%d", &ts); err != nil {
		return time.Time{}, "", err
	}

	return time.Unix(0, ts), suffix[21:], nil
}
