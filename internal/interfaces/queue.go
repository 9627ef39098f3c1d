package interfaces

import (
	"context"

	"github.com/voclabs/vocero/internal/models"
)

// QueueManager is the at-least-once work queue consumed by the worker loop.
type QueueManager interface {
	// Enqueue adds a work descriptor to the queue.
	Enqueue(ctx context.Context, msg *models.QueueMessage) error

	// Receive pulls the next visible message, making it invisible to other
	// consumers for the visibility timeout. It returns the message and an
	// acknowledge function; the message is redelivered unless acknowledge
	// is called. Returns models.ErrNoMessage when nothing is ready.
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)

	Close() error
}
