package productsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storesync/internal/lock"
	"storesync/internal/logger"
	"storesync/internal/models"
	"storesync/internal/reconciler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	mu       sync.Mutex
	active   int
	overlaps int
	calls    []models.SyncAction
	result   reconciler.SyncResult
}

func (r *stubReconciler) Sync(ctx context.Context, action models.SyncAction, p *models.Product) reconciler.SyncResult {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlaps++
	}
	r.calls = append(r.calls, action)
	r.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return r.result
}

type memoryProducts struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	recorded  []reconciler.SyncResult
	recordErr error
}

func (m *memoryProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	return p, nil
}

func (m *memoryProducts) RecordSync(ctx context.Context, productID string, action models.SyncAction, result reconciler.SyncResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.recorded = append(m.recorded, result)
	return nil
}

func TestSyncRecordsResult(t *testing.T) {
	rec := &stubReconciler{result: reconciler.SyncResult{Success: true, RemoteProductID: "p", RemoteOfferID: "o"}}
	products := &memoryProducts{}
	svc := NewService(rec, products, lock.NewMemory(), logger.NewNop())

	result, err := svc.Sync(context.Background(), models.SyncActionCreate, &models.Product{ID: "7"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []reconciler.SyncResult{result}, products.recorded)
}

func TestSyncRecordsFailures(t *testing.T) {
	rec := &stubReconciler{result: reconciler.SyncResult{Error: "Unauthenticated."}}
	products := &memoryProducts{}
	svc := NewService(rec, products, lock.NewMemory(), logger.NewNop())

	result, err := svc.Sync(context.Background(), models.SyncActionUpdate, &models.Product{ID: "7"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, products.recorded, 1)
	assert.Equal(t, "Unauthenticated.", products.recorded[0].Error)
}

func TestSyncRecordError(t *testing.T) {
	rec := &stubReconciler{result: reconciler.SyncResult{Success: true, RemoteProductID: "p", RemoteOfferID: "o"}}
	products := &memoryProducts{recordErr: errors.New("db down")}
	svc := NewService(rec, products, lock.NewMemory(), logger.NewNop())

	result, err := svc.Sync(context.Background(), models.SyncActionCreate, &models.Product{ID: "7"})
	assert.Error(t, err)
	assert.True(t, result.Success)
}

func TestSyncSerialisesSameProduct(t *testing.T) {
	rec := &stubReconciler{result: reconciler.SyncResult{Success: true, RemoteProductID: "p", RemoteOfferID: "o"}}
	products := &memoryProducts{products: map[string]*models.Product{"7": {ID: "7"}}}
	svc := NewService(rec, products, lock.NewMemory(), logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SyncByID(context.Background(), models.SyncActionUpdate, "7")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, rec.overlaps)
	assert.Len(t, rec.calls, 10)
	assert.Len(t, products.recorded, 10)
}

func TestSyncByIDUnknownProduct(t *testing.T) {
	rec := &stubReconciler{}
	svc := NewService(rec, &memoryProducts{products: map[string]*models.Product{}}, lock.NewMemory(), logger.NewNop())

	_, err := svc.SyncByID(context.Background(), models.SyncActionUpdate, "missing")
	assert.Error(t, err)
	assert.Empty(t, rec.calls)
}

func TestSyncLockTimeout(t *testing.T) {
	locker := lock.NewMemory()
	unlock, err := locker.Lock(context.Background(), lockKey("7"))
	require.NoError(t, err)
	defer unlock()

	rec := &stubReconciler{}
	svc := NewService(rec, &memoryProducts{}, locker, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = svc.Sync(ctx, models.SyncActionCreate, &models.Product{ID: "7"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rec.calls)
}
