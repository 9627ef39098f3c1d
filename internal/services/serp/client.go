// -----------------------------------------------------------------------
// Client - create+poll session driver for the slow task provider
// -----------------------------------------------------------------------

package serp

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
)

// Client encapsulates the two-phase "submit work, then poll until done"
// protocol. Creation retries transient transport failures with doubling
// backoff; polling grows its wait by a fixed factor up to a ceiling.
//
// A session that exhausts its poll attempts without reaching a terminal
// state returns an empty result, never an error - callers must treat
// "empty" as ambiguous between "truly no data" and "timed out".
type Client struct {
	api             taskAPI
	logger          arbor.ILogger
	createRetries   int
	createBaseDelay time.Duration
	pollInitialWait time.Duration
	pollGrowth      float64
	pollMaxWait     time.Duration
	pollMaxAttempts int

	// sleep is swappable so tests can observe the backoff shape without
	// waiting on wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithSleeper replaces the wait function used between poll attempts.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithPollMaxAttempts overrides the configured attempt bound for one
// client. Discovery uses a larger bound than review collection.
func WithPollMaxAttempts(attempts int) ClientOption {
	return func(c *Client) {
		c.pollMaxAttempts = attempts
	}
}

// NewClient creates a session driver over the given transport.
func NewClient(api taskAPI, cfg *common.ProviderConfig, logger arbor.ILogger, opts ...ClientOption) *Client {
	c := &Client{
		api:             api,
		logger:          logger,
		createRetries:   cfg.CreateRetries,
		pollGrowth:      cfg.PollGrowth,
		pollMaxAttempts: cfg.PollMaxAttempts,
		sleep:           sleepCtx,
	}

	c.createBaseDelay = parseDurationOr(cfg.CreateBaseDelay, 500*time.Millisecond)
	c.pollInitialWait = parseDurationOr(cfg.PollInitialWait, 2*time.Second)
	c.pollMaxWait = parseDurationOr(cfg.PollMaxWait, 8*time.Second)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateTask submits a task and returns the provider task id. Transient
// transport failures are retried up to the configured bound with doubling
// backoff; a definitive provider rejection is surfaced immediately.
func (c *Client) CreateTask(ctx context.Context, endpoint Endpoint, payload interface{}) (string, error) {
	var lastErr error
	delay := c.createBaseDelay

	for attempt := 0; attempt <= c.createRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
			delay *= 2
		}

		resp, err := c.api.PostTask(ctx, endpoint, payload)
		if err != nil {
			if _, definitive := err.(*APIError); definitive {
				return "", fmt.Errorf("task creation rejected: %w", err)
			}
			lastErr = err
			c.logger.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Msg("Transient error creating task")
			continue
		}

		if resp.StatusCode != statusOK || len(resp.Tasks) == 0 {
			return "", fmt.Errorf("task creation failed with provider status %d", resp.StatusCode)
		}
		task := resp.Tasks[0]
		if task.StatusCode != statusTaskCreated && task.StatusCode != statusOK {
			return "", fmt.Errorf("task rejected with status %d: %s", task.StatusCode, task.StatusMessage)
		}

		c.logger.Debug().
			Str("task_id", task.ID).
			Msg("Provider task created")

		return task.ID, nil
	}

	return "", fmt.Errorf("task creation failed after %d attempts: %w", c.createRetries+1, lastErr)
}

// Poll queries the task until it reaches a terminal state or the attempt
// bound is exhausted. The wait interval grows by the configured factor up
// to the ceiling. Unrecognized statuses are treated like "processing":
// some providers return ambiguous transient codes, and continuing costs
// extra polls but avoids false negatives.
//
// The only returned error is context cancellation; timeout yields an
// empty item list.
func (c *Client) Poll(ctx context.Context, endpoint Endpoint, taskID string) ([]Item, error) {
	wait := c.pollInitialWait

	for attempt := 0; attempt < c.pollMaxAttempts; attempt++ {
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}

		resp, err := c.api.GetTask(ctx, endpoint, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().
				Err(err).
				Str("task_id", taskID).
				Int("attempt", attempt+1).
				Msg("Error polling task")
			continue
		}

		if len(resp.Tasks) == 0 {
			continue
		}
		task := resp.Tasks[0]

		switch task.StatusCode {
		case statusOK:
			items := collectItems(task)
			c.logger.Debug().
				Str("task_id", taskID).
				Int("items", len(items)).
				Msg("Task succeeded")
			return items, nil

		case statusNoResults:
			c.logger.Debug().Str("task_id", taskID).Msg("Task finished with no results")
			return nil, nil

		case statusInQueue, statusProcessing:
			wait = c.nextWait(wait)

		default:
			c.logger.Warn().
				Str("task_id", taskID).
				Int("status", task.StatusCode).
				Str("message", task.StatusMessage).
				Msg("Ambiguous task status, continuing to poll")
			wait = c.nextWait(wait)
		}
	}

	c.logger.Warn().
		Str("task_id", taskID).
		Int("max_attempts", c.pollMaxAttempts).
		Msg("Poll session abandoned, returning empty result")

	return nil, nil
}

// Run drives one full create+poll session. The error covers creation
// failures only; per Poll's contract, a created task always yields a
// (possibly empty) item list.
func (c *Client) Run(ctx context.Context, endpoint Endpoint, payload interface{}) ([]Item, error) {
	taskID, err := c.CreateTask(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return c.Poll(ctx, endpoint, taskID)
}

// nextWait applies the growth factor and ceiling.
func (c *Client) nextWait(wait time.Duration) time.Duration {
	grown := time.Duration(float64(wait) * c.pollGrowth)
	if grown > c.pollMaxWait {
		return c.pollMaxWait
	}
	return grown
}

func collectItems(task TaskEntry) []Item {
	var items []Item
	for _, result := range task.Result {
		items = append(items, result.Items...)
	}
	return items
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
