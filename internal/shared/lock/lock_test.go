package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-hris-engine/internal/shared/apperror"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayrollKey(t *testing.T) {
	id := uuid.MustParse("7f3c1a52-0c1e-4a53-9d0e-5c2b7a4e2f10")
	assert.Equal(t, "payroll:7f3c1a52-0c1e-4a53-9d0e-5c2b7a4e2f10:2025-11", PayrollKey(id, 11, 2025))
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(ctx, "k")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxInside)
				if n <= old || atomic.CompareAndSwapInt32(&maxInside, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.size())
}

func TestKeyedMutex_DistinctKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	releaseA, err := m.Acquire(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	releaseB, err := m.Acquire(ctxB, "b")
	require.NoError(t, err)
	releaseB()
	releaseB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	m := NewKeyedMutex()

	release, err := m.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = m.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Equal(t, 0, m.size())
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, 30*time.Second,
		WithTokenFunc(func() string { return "tok-1" }),
		WithPollInterval(time.Millisecond),
	)

	mock.ExpectSetNX("hris:lock:payroll:x", "tok-1", 30*time.Second).SetVal(false)
	mock.ExpectSetNX("hris:lock:payroll:x", "tok-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"hris:lock:payroll:x"}, "tok-1").SetVal(int64(1))

	release, err := locker.Acquire(context.Background(), "payroll:x")
	require.NoError(t, err)
	release()
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_StoreError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, time.Second, WithTokenFunc(func() string { return "tok" }))

	mock.ExpectSetNX("hris:lock:k", "tok", time.Second).SetErr(errors.New("connection refused"))

	_, err := locker.Acquire(context.Background(), "k")
	assert.True(t, apperror.IsStoreUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_ContextDone(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, time.Second,
		WithTokenFunc(func() string { return "tok" }),
		WithPollInterval(time.Hour),
	)

	mock.ExpectSetNX("hris:lock:k", "tok", time.Second).SetVal(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := locker.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}
