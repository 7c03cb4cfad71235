package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storesync/internal/events"
	"storesync/internal/logger"
	"storesync/internal/models"
	"storesync/internal/reconciler"
	"storesync/internal/store"
	"storesync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type recordingSyncer struct {
	mu      sync.Mutex
	byID    []string
	deletes []*models.Product
	err     error
}

func (s *recordingSyncer) Sync(ctx context.Context, action models.SyncAction, p *models.Product) (reconciler.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, p)
	return reconciler.SyncResult{Success: true, Message: reconciler.MessageDeletionRecorded}, nil
}

func (s *recordingSyncer) SyncByID(ctx context.Context, action models.SyncAction, id string) (reconciler.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = append(s.byID, string(action)+":"+id)
	if s.err != nil {
		return reconciler.SyncResult{}, s.err
	}
	return reconciler.SyncResult{Success: true, RemoteProductID: "p", RemoteOfferID: "o"}, nil
}

func encode(t *testing.T, action models.SyncAction, p *models.Product) kafka.Message {
	t.Helper()
	msg, err := events.Encode(events.NewProductEvent(action, p))
	require.NoError(t, err)
	return msg
}

func runUntilDrained(t *testing.T, w *Worker, r *fakeReader) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestRunProcessesAndCommits(t *testing.T) {
	r := newFakeReader(
		encode(t, models.SyncActionCreate, &models.Product{ID: "1"}),
		kafka.Message{Value: []byte("garbage")},
		encode(t, models.SyncActionDelete, &models.Product{ID: "2", Name: "Polo"}),
		encode(t, models.SyncActionUpdate, &models.Product{ID: "3"}),
	)
	syncer := &recordingSyncer{}
	w := &Worker{logger: logger.NewNop(), reader: r, processor: processors.NewEventProcessor(syncer, logger.NewNop()), backoff: time.Millisecond}

	runUntilDrained(t, w, r)

	assert.Equal(t, []string{"create:1", "update:3"}, syncer.byID)
	require.Len(t, syncer.deletes, 1)
	assert.Equal(t, "Polo", syncer.deletes[0].Name)
	assert.Len(t, r.committed, 4)
}

func TestRunSurvivesFetchErrors(t *testing.T) {
	r := newFakeReader(encode(t, models.SyncActionUpdate, &models.Product{ID: "1"}))
	r.fetchErrs = []error{errors.New("broker gone")}
	syncer := &recordingSyncer{}
	w := &Worker{logger: logger.NewNop(), reader: r, processor: processors.NewEventProcessor(syncer, logger.NewNop()), backoff: time.Millisecond}

	runUntilDrained(t, w, r)

	assert.Equal(t, []string{"update:1"}, syncer.byID)
}

func TestProcessSkipsMissingProducts(t *testing.T) {
	syncer := &recordingSyncer{err: store.ErrProductNotFound}
	p := processors.NewEventProcessor(syncer, logger.NewNop())

	err := p.Process(context.Background(), events.NewProductEvent(models.SyncActionUpdate, &models.Product{ID: "9"}))
	assert.NoError(t, err)
}

func TestProcessReportsRecordFailures(t *testing.T) {
	syncer := &recordingSyncer{err: errors.New("record sync: db down")}
	p := processors.NewEventProcessor(syncer, logger.NewNop())

	err := p.Process(context.Background(), events.NewProductEvent(models.SyncActionUpdate, &models.Product{ID: "9"}))
	assert.Error(t, err)
}

func TestProcessSkipsUnknownTypes(t *testing.T) {
	syncer := &recordingSyncer{}
	p := processors.NewEventProcessor(syncer, logger.NewNop())

	err := p.Process(context.Background(), events.Event{ID: "x", Type: "export.required", ProductID: "1"})
	assert.NoError(t, err)
	assert.Empty(t, syncer.byID)
}
