package serp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
)

// scriptedAPI plays back canned responses per call.
type scriptedAPI struct {
	postResponses []response
	getResponses  []response
	postCalls     int
	getCalls      int
}

type response struct {
	resp *TaskResponse
	err  error
}

func (s *scriptedAPI) PostTask(ctx context.Context, endpoint Endpoint, payload interface{}) (*TaskResponse, error) {
	r := s.postResponses[s.postCalls]
	s.postCalls++
	return r.resp, r.err
}

func (s *scriptedAPI) GetTask(ctx context.Context, endpoint Endpoint, taskID string) (*TaskResponse, error) {
	r := s.getResponses[s.getCalls]
	s.getCalls++
	return r.resp, r.err
}

func testProviderConfig() *common.ProviderConfig {
	return &common.ProviderConfig{
		CreateRetries:   3,
		CreateBaseDelay: "100ms",
		PollInitialWait: "2s",
		PollGrowth:      1.5,
		PollMaxWait:     "8s",
		PollMaxAttempts: 5,
	}
}

// newTestClient records sleeps instead of waiting.
func newTestClient(api taskAPI, cfg *common.ProviderConfig, waits *[]time.Duration) *Client {
	return NewClient(api, cfg, arbor.NewLogger(), WithSleeper(func(ctx context.Context, d time.Duration) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		*waits = append(*waits, d)
		return nil
	}))
}

func createdResponse(id string) response {
	return response{resp: &TaskResponse{
		StatusCode: statusOK,
		Tasks:      []TaskEntry{{ID: id, StatusCode: statusTaskCreated}},
	}}
}

func processingResponse(id string) response {
	return response{resp: &TaskResponse{
		StatusCode: statusOK,
		Tasks:      []TaskEntry{{ID: id, StatusCode: statusProcessing}},
	}}
}

func succeededResponse(id string, items ...Item) response {
	return response{resp: &TaskResponse{
		StatusCode: statusOK,
		Tasks: []TaskEntry{{
			ID:         id,
			StatusCode: statusOK,
			Result:     []TaskResult{{Items: items}},
		}},
	}}
}

func TestCreateTask_Success(t *testing.T) {
	api := &scriptedAPI{postResponses: []response{createdResponse("t-1")}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	id, err := client.CreateTask(context.Background(), EndpointMapsSearch, MapsSearchTask{Keyword: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", id)
	assert.Empty(t, waits)
}

func TestCreateTask_RetriesTransientWithDoublingDelay(t *testing.T) {
	api := &scriptedAPI{postResponses: []response{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
		createdResponse("t-1"),
	}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	id, err := client.CreateTask(context.Background(), EndpointMapsSearch, MapsSearchTask{})
	require.NoError(t, err)
	assert.Equal(t, "t-1", id)
	assert.Equal(t, 3, api.postCalls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, waits)
}

func TestCreateTask_ExhaustsRetries(t *testing.T) {
	transient := response{err: errors.New("connection reset")}
	api := &scriptedAPI{postResponses: []response{transient, transient, transient, transient}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	_, err := client.CreateTask(context.Background(), EndpointMapsSearch, MapsSearchTask{})
	require.Error(t, err)
	assert.Equal(t, 4, api.postCalls) // initial attempt + 3 retries
}

func TestCreateTask_RejectionIsNotRetried(t *testing.T) {
	api := &scriptedAPI{postResponses: []response{
		{err: &APIError{StatusCode: 401, Message: "unauthorized"}},
	}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	_, err := client.CreateTask(context.Background(), EndpointMapsSearch, MapsSearchTask{})
	require.Error(t, err)
	assert.Equal(t, 1, api.postCalls)
	assert.Empty(t, waits)
}

func TestPoll_SucceedsAfterProcessing(t *testing.T) {
	api := &scriptedAPI{getResponses: []response{
		processingResponse("t-1"),
		processingResponse("t-1"),
		succeededResponse("t-1", Item{Type: "review", ReviewText: "good"}),
	}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	items, err := client.Poll(context.Background(), EndpointBusinessReviews, "t-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].ReviewText)
	assert.Equal(t, 3, api.getCalls)

	// Waits grow monotonically: 2s, then 3s, then 4.5s.
	require.Len(t, waits, 3)
	assert.Equal(t, 2*time.Second, waits[0])
	assert.Equal(t, 3*time.Second, waits[1])
	assert.Equal(t, 4500*time.Millisecond, waits[2])
}

func TestPoll_WaitCappedAtMax(t *testing.T) {
	api := &scriptedAPI{getResponses: []response{
		processingResponse("t-1"),
		processingResponse("t-1"),
		processingResponse("t-1"),
		processingResponse("t-1"),
		processingResponse("t-1"),
		processingResponse("t-1"),
		processingResponse("t-1"),
		succeededResponse("t-1"),
	}}
	cfg := testProviderConfig()
	cfg.PollMaxAttempts = 8
	var waits []time.Duration
	client := newTestClient(api, cfg, &waits)

	_, err := client.Poll(context.Background(), EndpointBusinessReviews, "t-1")
	require.NoError(t, err)

	for i := 1; i < len(waits); i++ {
		assert.GreaterOrEqual(t, waits[i], waits[i-1], "waits must never shrink")
		assert.LessOrEqual(t, waits[i], 8*time.Second, "waits must respect the cap")
	}
	assert.Equal(t, 8*time.Second, waits[len(waits)-1])
}

func TestPoll_NoResultsIsTerminalEmpty(t *testing.T) {
	api := &scriptedAPI{getResponses: []response{
		{resp: &TaskResponse{
			StatusCode: statusOK,
			Tasks:      []TaskEntry{{ID: "t-1", StatusCode: statusNoResults}},
		}},
	}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	items, err := client.Poll(context.Background(), EndpointBusinessReviews, "t-1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, api.getCalls)
}

func TestPoll_UnknownStatusKeepsPolling(t *testing.T) {
	api := &scriptedAPI{getResponses: []response{
		{resp: &TaskResponse{
			StatusCode: statusOK,
			Tasks:      []TaskEntry{{ID: "t-1", StatusCode: 40000, StatusMessage: "something new"}},
		}},
		succeededResponse("t-1", Item{Type: "review"}),
	}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	items, err := client.Poll(context.Background(), EndpointBusinessReviews, "t-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, api.getCalls)
}

func TestPoll_ExhaustionYieldsEmptyNotError(t *testing.T) {
	processing := processingResponse("t-1")
	api := &scriptedAPI{getResponses: []response{processing, processing, processing, processing, processing}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	items, err := client.Poll(context.Background(), EndpointBusinessReviews, "t-1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 5, api.getCalls)
}

func TestPoll_ContextCancellation(t *testing.T) {
	api := &scriptedAPI{getResponses: []response{processingResponse("t-1")}}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Poll(ctx, EndpointBusinessReviews, "t-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CreateThenPoll(t *testing.T) {
	api := &scriptedAPI{
		postResponses: []response{createdResponse("t-9")},
		getResponses:  []response{succeededResponse("t-9", Item{Type: "maps_search", PlaceID: "p1"})},
	}
	var waits []time.Duration
	client := newTestClient(api, testProviderConfig(), &waits)

	items, err := client.Run(context.Background(), EndpointMapsSearch, MapsSearchTask{Keyword: "acme"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].PlaceID)
}
